package ai

import (
	"testing"

	"github.com/amishk599/jobsync/internal/model"
)

func TestAccept_Boundaries(t *testing.T) {
	tests := []struct {
		name       string
		legitimate bool
		confidence int
		want       bool
	}{
		{"at threshold", true, 70, true},
		{"one below", true, 69, false},
		{"high", true, 85, true},
		{"low", true, 40, false},
		{"fallback confidence", true, 60, false},
		{"not legitimate but confident", false, 95, false},
		{"not legitimate at threshold", false, 70, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := model.VerificationResult{IsLegitimate: tt.legitimate, Confidence: tt.confidence}
			if got := Accept(r, DefaultThreshold); got != tt.want {
				t.Errorf("Accept(legit=%v, conf=%d) = %v, want %v", tt.legitimate, tt.confidence, got, tt.want)
			}
		})
	}
}

func TestToVerifiedJob(t *testing.T) {
	item := model.RawItem{
		Source: "sarkari-feed",
		Title:  "SSC CGL 2024",
		Link:   "https://jobs.example.com/ssc-cgl-2024",
	}
	result := model.VerificationResult{
		IsLegitimate: true,
		Confidence:   85,
		Extracted: model.Extracted{
			Organization: "Staff Selection Commission",
			PostName:     "Combined Graduate Level",
			Vacancies:    17727,
			LastDate:     "2024-07-24",
			Fee:          "100",
		},
		Category: "ssc",
	}

	job := ToVerifiedJob(item, "hash-1", result)

	if job.ContentHash != "hash-1" {
		t.Errorf("ContentHash = %q", job.ContentHash)
	}
	if job.AIConfidence != 85 {
		t.Errorf("AIConfidence = %d, want 85", job.AIConfidence)
	}
	if job.Status != model.StatusActive {
		t.Errorf("Status = %q, want active", job.Status)
	}
	if job.Category != "SSC" {
		t.Errorf("Category = %q, want SSC", job.Category)
	}
	if job.PostName != "Combined Graduate Level" || job.Organization != "Staff Selection Commission" {
		t.Errorf("PostName/Organization = %q/%q", job.PostName, job.Organization)
	}
	if job.OfficialLink != item.Link {
		t.Errorf("OfficialLink = %q, want source link when none extracted", job.OfficialLink)
	}
	if job.Source != "sarkari-feed" || job.SourceLink != item.Link {
		t.Errorf("Source/SourceLink = %q/%q", job.Source, job.SourceLink)
	}
	if !job.CreatedAt.IsZero() || job.ID != "" {
		t.Error("ID and timestamps are assigned by the store")
	}
}

func TestToVerifiedJob_FallsBackToRawTitle(t *testing.T) {
	item := model.RawItem{Title: "Police Constable Bharti", Link: "https://x.example.com"}
	job := ToVerifiedJob(item, "h", model.VerificationResult{IsLegitimate: true, Confidence: 75})
	if job.PostName != "Police Constable Bharti" {
		t.Errorf("PostName = %q, want raw title", job.PostName)
	}
	if job.Category != "General" {
		t.Errorf("Category = %q, want General", job.Category)
	}
}
