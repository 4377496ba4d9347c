package models

import "time"

// Scores holds the seven per-dimension interview scores, each in [0,10]
type Scores struct {
	Clarity        int `json:"clarity"`
	Understanding  int `json:"understanding"`
	Correctness    int `json:"correctness"`
	CodeQuality    int `json:"codeQuality"`
	TestCoverage   int `json:"testCoverage"`
	TimeManagement int `json:"timeManagement"`
	Confidence     int `json:"confidence"`
}

// Feedback is the qualitative half of an evaluation
type Feedback struct {
	Strengths   []string `json:"strengths"`
	Weaknesses  []string `json:"weaknesses"`
	Suggestions []string `json:"suggestions"`
}

// Evaluation is the structured result produced by the evaluation collaborator
type Evaluation struct {
	ID           int64     `json:"id,omitempty"`
	SessionID    string    `json:"sessionId"`
	Scores       Scores    `json:"scores"`
	Feedback     Feedback  `json:"feedback"`
	OverallScore int       `json:"overallScore"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
}
