package domain

import (
	"strings"
	"time"
)

// Source enumerates the external feeds candidates are discovered from.
type Source string

const (
	SourceLaunchBoard Source = "launchboard"
	SourceCodeHost    Source = "codehost"
	SourceForum       Source = "forum"
	SourceModelHub    Source = "modelhub"
	SourceWebSearch   Source = "websearch"
)

// Kind tags the shape of a discovered record. Commercial products and
// open-source tools share most fields but carry different extras.
type Kind string

const (
	KindCommercial Kind = "commercial"
	KindOpenSource Kind = "opensource"
)

// CandidateRecord is a raw, unvalidated entity discovered from a feed.
// It is created once per aggregator run and never persisted directly.
type CandidateRecord struct {
	Kind        Kind
	Name        string
	Tagline     string
	Description string
	Website     string
	LogoURL     string
	Tags        []string
	LaunchDate  time.Time
	Source      Source
	SourceID    string

	Upvotes  int
	Stars    int
	Comments int

	// Open-source extras; empty for commercial records.
	RepoURL string
	License string
}

// DedupKey identifies a candidate across feeds within one run: the
// source-scoped external id when present, the normalized name otherwise.
func (c CandidateRecord) DedupKey() string {
	if c.SourceID != "" {
		return string(c.Source) + ":" + c.SourceID
	}
	return strings.ToLower(strings.TrimSpace(c.Name))
}

// CombinedText joins the natural-language fields for keyword screening.
func (c CandidateRecord) CombinedText() string {
	return strings.ToLower(strings.Join([]string{c.Name, c.Tagline, c.Description, strings.Join(c.Tags, " ")}, " "))
}
