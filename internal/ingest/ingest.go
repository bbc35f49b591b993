// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ingest reads the string sources accepted by the nearset command
// line: plain text with one string per line, a JSON array of strings, and
// comma-separated lines with one configured column. Each source yields an
// ordered slice of non-empty strings.
package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ColumnError describes a CSV line with too few columns for the requested
// column index. Got is the number of columns on the line and Needed is the
// 0-based column that was asked for.
type ColumnError struct {
	Line   int
	Got    int
	Needed int
}

func (e ColumnError) Error() string {
	return fmt.Sprintf("csv: line %d: column index %d out of bounds, line has %d columns", e.Line, e.Needed, e.Got)
}

// Text reads one string per line from r, skipping empty lines. Lines are
// not trimmed.
func Text(r io.Reader) ([]string, error) {
	var strs []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			strs = append(strs, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("error during text read: %w", err)
	}
	return strs, nil
}

// JSON reads a JSON array of strings from r, skipping empty strings.
func JSON(r io.Reader) ([]string, error) {
	var raw []string
	err := json.NewDecoder(r).Decode(&raw)
	if err != nil {
		return nil, fmt.Errorf("error during json read: %w", err)
	}
	strs := raw[:0]
	for _, s := range raw {
		if s != "" {
			strs = append(strs, s)
		}
	}
	return strs, nil
}

// CSV reads the given 0-based column from each comma-separated line of r,
// skipping empty values. Lines are split on commas only; there is no
// quoting. A line with too few columns fails with a ColumnError.
func CSV(r io.Reader, column int) ([]string, error) {
	var strs []string
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		cols := strings.Split(sc.Text(), ",")
		if column >= len(cols) {
			return nil, ColumnError{Line: line, Got: len(cols), Needed: column}
		}
		if v := cols[column]; v != "" {
			strs = append(strs, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("error during csv read: %w", err)
	}
	return strs, nil
}
