package domain

// Question is raw question-bank content for one category entry.
type Question struct {
	Text    string   `json:"question"`
	Options []string `json:"options"`
	Answer  string   `json:"answer"`
}

// RenderedOption is an option with its correctness already computed,
// as delivered to clients.
type RenderedOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// RenderedQuestion is a question instance whose option order is fixed
// for the lifetime of one game.
type RenderedQuestion struct {
	Text    string           `json:"question"`
	Options []RenderedOption `json:"options"`
}

// Player is a room member and their last-reported score.
type Player struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Room is a single multiplayer game session. Players are kept in join
// order; Questions is empty until the game starts.
type Room struct {
	ID        string             `json:"roomId"`
	Host      string             `json:"host"`
	Players   []Player           `json:"players"`
	Started   bool               `json:"started"`
	Category  string             `json:"category,omitempty"`
	Questions []RenderedQuestion `json:"questions"`
}
