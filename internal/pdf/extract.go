package pdf

import (
	"strings"

	"code.sajari.com/docconv"
)

// FirstPageText returns the plain text of a PDF's first page. docconv joins
// pages with form feeds, so everything from the first \f on is dropped.
//
// Extraction never fails: conversion errors, image-only scans and empty
// documents all degrade to "", which the name heuristic downstream treats
// as "no name found".
func FirstPageText(path string) string {
	res, err := docconv.ConvertPath(path)
	if err != nil || res == nil {
		return ""
	}
	text := res.Body
	if i := strings.IndexByte(text, '\f'); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}
