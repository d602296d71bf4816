// SPDX-License-Identifier: MPL-2.0

// Package cueutil unifies CUE documents with an embedded schema and decodes
// the result into Go values.
//
// The application configuration and the form schema files of a project go
// through the same three steps:
//
//  1. Compile the embedded schema
//  2. Compile the user data and unify it with one of the schema definitions
//  3. Validate and decode into a Go value
//
// # Usage
//
//	//go:embed form_schema.cue
//	var schemaBytes []byte
//
//	res, err := cueutil.ParseFile[Form](fsys, "_schemas/requirement.cue", schemaBytes, "#Form")
//	if err != nil {
//	    return err // *cueutil.Error carries one Issue per failing CUE path
//	}
//	return res.Value, nil
package cueutil
