package models

import "time"

// Types produced and stored by the builtin plugin engines.

// Template is a generation preset offered by the copywriting and
// prototype engines.
type Template struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	PreviewImage string `json:"previewImage,omitempty"`
}

// Language is one entry of the translator's supported-language list.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Translation is a stored result of the i18n-translator engine.
type Translation struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Text           string    `json:"text"`
	TranslatedText string    `json:"translatedText"`
	SourceLanguage string    `json:"sourceLanguage"`
	TargetLanguage string    `json:"targetLanguage"`
	Model          string    `json:"model"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Copy is a stored result of the ai-copywriting engine.
type Copy struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	TemplateID string    `json:"templateId"`
	Product    string    `json:"product"`
	Audience   string    `json:"audience,omitempty"`
	Tone       string    `json:"tone,omitempty"`
	Keywords   string    `json:"keywords,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CopyAnalysis is the (unstored) result of analyzing a piece of copy.
type CopyAnalysis struct {
	Content        string `json:"content"`
	WordCount      int    `json:"wordCount"`
	ReadingTime    int    `json:"readingTime"`
	Sentiment      string `json:"sentiment"`
	TargetAudience string `json:"targetAudience"`
	Platform       string `json:"platform"`
	Analysis       string `json:"analysis"`
}

// Prototype is a stored result of the ai-prototype engine.
type Prototype struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	TemplateID  string    `json:"templateId"`
	Description string    `json:"description"`
	Elements    string    `json:"elements,omitempty"`
	Style       string    `json:"style,omitempty"`
	Status      string    `json:"status"`
	PreviewURL  string    `json:"previewUrl"`
	DownloadURL string    `json:"downloadUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}
