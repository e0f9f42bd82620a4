package ai

import "github.com/amishk599/jobsync/internal/model"

// Accept is the acceptance gate: a result becomes a job only when it is
// legitimate and its confidence reaches threshold.
func Accept(result model.VerificationResult, threshold int) bool {
	return result.IsLegitimate && result.Confidence >= threshold
}

// ToVerifiedJob builds the record for an accepted item. The store fills in
// ID, CreatedAt and UpdatedAt on insert.
func ToVerifiedJob(item model.RawItem, hash string, result model.VerificationResult) model.VerifiedJob {
	ex := result.Extracted

	postName := ex.PostName
	if postName == "" {
		postName = item.Title
	}
	organization := ex.Organization
	if organization == "" {
		organization = item.Organization
	}
	lastDate := ex.LastDate
	if lastDate == "" {
		lastDate = item.LastDate
	}
	officialLink := ex.OfficialLink
	if officialLink == "" {
		officialLink = item.Link
	}

	return model.VerifiedJob{
		ContentHash:   hash,
		Organization:  organization,
		PostName:      postName,
		Vacancies:     ex.Vacancies,
		StartDate:     ex.StartDate,
		LastDate:      lastDate,
		ExamDate:      ex.ExamDate,
		Fee:           ex.Fee,
		Qualification: ex.Qualification,
		AgeLimit:      ex.AgeLimit,
		OfficialLink:  officialLink,
		Category:      NormalizeCategory(result.Category),
		Source:        item.Source,
		SourceLink:    item.Link,
		AIConfidence:  result.Confidence,
		Status:        model.StatusActive,
	}
}
