package utils

import "failarchive/internal/models"

// EvidenceWeights 证据等级基础分与附加材料加分
type EvidenceWeights struct {
	Base         map[models.EvidenceLevel]int
	GithubBonus  int
	MetricsBonus int
	LogsBonus    int
	ChartsBonus  int
	Max          int
}

var DefaultEvidenceWeights = EvidenceWeights{
	Base: map[models.EvidenceLevel]int{
		models.EvidenceReproducible:  100,
		models.EvidenceResearchGrade: 80,
		models.EvidenceMetrics:       60,
		models.EvidenceAnecdotal:     30,
		models.EvidenceNone:          10,
	},
	GithubBonus:  10,
	MetricsBonus: 5,
	LogsBonus:    5,
	ChartsBonus:  5,
	Max:          100,
}

// EvidenceScore 计算记录的证据分，范围 0-100
func EvidenceScore(level models.EvidenceLevel, hasGithub, hasMetrics, hasLogs, hasCharts bool) int {
	w := DefaultEvidenceWeights
	score := w.Base[level]
	if hasGithub {
		score += w.GithubBonus
	}
	if hasMetrics {
		score += w.MetricsBonus
	}
	if hasLogs {
		score += w.LogsBonus
	}
	if hasCharts {
		score += w.ChartsBonus
	}
	return min(score, w.Max)
}
