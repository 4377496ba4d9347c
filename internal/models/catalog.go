package models

// Field represents an interview domain (e.g., frontend-development)
type Field struct {
	ID            string     `yaml:"id" json:"id"`
	Name          string     `yaml:"name" json:"name"`
	Description   string     `yaml:"description" json:"description"`
	Languages     []string   `yaml:"languages" json:"languages"`
	Questions     []Question `yaml:"questions" json:"questions"`
	QuestionCount int        `yaml:"-" json:"questionCount"`
}

// Question is one timed prompt within a field's interview
type Question struct {
	ID         int      `yaml:"id" json:"id"`
	Title      string   `yaml:"title" json:"title"`
	Prompt     string   `yaml:"prompt" json:"prompt"`
	Difficulty string   `yaml:"difficulty" json:"difficulty"` // easy | medium | hard
	TimeLimit  int      `yaml:"time_limit" json:"timeLimit"`  // seconds
	Skills     []string `yaml:"skills" json:"skills"`
}
