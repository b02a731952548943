// Package parser converts uploaded exam documents (DOCX, PDF) into structured
// question records. Extraction is format-specific; segmentation is a single
// forward pass over the extracted plain text.
package parser

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// QuestionType classifies a parsed question.
type QuestionType string

const (
	// TypeMultipleChoice is a single-answer multiple-choice question.
	TypeMultipleChoice QuestionType = "multiple_choice_single"
	// TypeEssay is a free-form question with no options.
	TypeEssay QuestionType = "essay"
)

// Question is one parsed question in document order.
type Question struct {
	QuestionText  string       `json:"question_text"`
	QuestionType  QuestionType `json:"question_type"`
	Options       []string     `json:"options"`
	CorrectAnswer int          `json:"correct_answer"`
	Explanation   string       `json:"explanation"`
	ImageURL      *string      `json:"image_url"`

	// HasMath is used for summary stats only and is not part of the
	// response payload.
	HasMath bool `json:"-"`
}

// Stats summarizes a parse result.
type Stats struct {
	TotalQuestions  int `json:"total_questions"`
	MathQuestions   int `json:"math_questions"`
	ImageQuestions  int `json:"image_questions"`
	ExtractedImages int `json:"extracted_images"`
}

// Document holds the raw extraction result for one uploaded file.
// ExtractedImages contains public image URLs in document order; a failed
// image write leaves an empty entry so positions stay aligned.
type Document struct {
	RawText         string
	HTML            string
	ExtractedImages []string
}

// Exam is the full parse result for one document.
type Exam struct {
	Metadata        Metadata
	Questions       []Question
	ExtractedImages []string
}

// Stats computes the summary counters for the parsed exam.
func (e *Exam) Stats() Stats {
	st := Stats{
		TotalQuestions:  len(e.Questions),
		ExtractedImages: len(e.ExtractedImages),
	}
	for _, q := range e.Questions {
		if q.HasMath {
			st.MathQuestions++
		}
		if q.ImageURL != nil {
			st.ImageQuestions++
		}
	}
	return st
}

// ErrUnsupportedFormat is returned for files that are neither DOCX nor PDF.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Extraction formats accepted by Parse.
const (
	FormatDOCX = "docx"
	FormatPDF  = "pdf"
)

// ResolveFormat picks the extraction format from the filename extension,
// falling back to the declared content type when the extension is missing or
// unrecognized. It returns "" for files that are neither DOCX nor PDF.
func ResolveFormat(filename, contentType string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".docx", ".doc":
		return FormatDOCX
	case ".pdf":
		return FormatPDF
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "application/pdf":
		return FormatPDF
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/msword":
		return FormatDOCX
	}
	return ""
}

// ExtractError wraps a converter failure with the source format so callers
// can map it to a format-specific user message.
type ExtractError struct {
	Format string // "docx" or "pdf"
	Err    error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("%s extraction: %v", e.Format, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// Parser turns uploaded exam documents into questions. Images embedded in
// DOCX files are persisted through the configured ImageStore.
type Parser struct {
	images *ImageStore
}

// New creates a Parser that materializes embedded images via store.
func New(store *ImageStore) *Parser {
	return &Parser{images: store}
}

// Parse extracts text and images from the file at path and segments the text
// into questions. format is one of the Format constants, typically obtained
// from ResolveFormat; anything else fails before extraction is attempted.
// The caller owns the uploaded file and is responsible for removing it on
// both success and failure.
func (p *Parser) Parse(ctx context.Context, path, format string) (*Exam, error) {
	var (
		doc *Document
		err error
	)
	switch format {
	case FormatDOCX:
		doc, err = p.extractDOCX(ctx, path)
	case FormatPDF:
		doc, err = p.extractPDF(ctx, path)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	return &Exam{
		Metadata:        ExtractMetadata(doc.RawText),
		Questions:       Segment(doc.RawText, doc.ExtractedImages),
		ExtractedImages: doc.ExtractedImages,
	}, nil
}
