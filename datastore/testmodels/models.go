/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package testmodels holds record types shared by gateway and engine tests.
package testmodels

import "github.com/go-openapi/strfmt"

type Author struct {

	// Unique identifier of the author.
	ID string `json:"_id,omitempty"`

	// Display name of the author.
	// Required: true
	Name *string `json:"name"`

	// Timestamp when the author joined.
	// Format: date-time
	JoinedAt *strfmt.DateTime `json:"joinedAt,omitempty"`
}

type Article struct {

	// Unique identifier of the article.
	ID string `json:"_id,omitempty"`

	// Title of the article.
	// Required: true
	Title string `json:"title"`

	// Reference to the author, or the author document once populated.
	Author any `json:"author,omitempty"`

	// Number of reads.
	Views int `json:"views"`

	// Timestamp when the article was published.
	// Format: date-time
	PublishedAt *strfmt.DateTime `json:"publishedAt,omitempty"`
}
