// Package assets bundles the files the binaries need at runtime.
package assets

import "embed"

//go:embed templates/email/*
var EmailTemplates embed.FS

//go:embed common-passwords.txt
var CommonPasswords string

// EmailTemplatesDir is the root of EmailTemplates.
const EmailTemplatesDir = "templates/email"
