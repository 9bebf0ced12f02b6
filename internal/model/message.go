package model

import "time"

// ContactMessage はお問い合わせフォームの送信内容。
type ContactMessage struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Subject     string    `json:"subject"`
	Message     string    `json:"message"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Feedback はフィードバックフォームの送信内容。
type Feedback struct {
	ID          string    `json:"id"`
	Rating      int       `json:"rating"`
	RatingLabel string    `json:"rating_label"`
	Comments    string    `json:"comments"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// ratingLabels は評価値(1〜5)の表示ラベル。
var ratingLabels = map[int]string{
	1: "Poor",
	2: "Fair",
	3: "Good",
	4: "Very Good",
	5: "Excellent",
}

// RatingLabel は評価値に対応するラベルを返す。範囲外は空文字列。
func RatingLabel(rating int) string {
	return ratingLabels[rating]
}
