package api

// User is the identity reported by /api/auth/me. It is replaced wholesale,
// never patched field by field.
type User struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	AuthProvider string `json:"authProvider,omitempty"`
}

// IsOAuth reports whether the account signs in through a third party and so
// has no local password to change.
func (u User) IsOAuth() bool {
	return u.AuthProvider != "" && u.AuthProvider != "local"
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// AuthResponse carries an empty Token with cookie sessions; it is decoded but unused.
type AuthResponse struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
	User    *User  `json:"user"`
}

type ProfileUpdate struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type UserStats struct {
	ProblemsSolved int    `json:"problemsSolved"`
	MemberSince    string `json:"memberSince"`
	LastActivity   string `json:"lastActivity"`
	User           *User  `json:"user"`
}

type PracticeStats struct {
	TotalAttempted       int     `json:"total_attempted"`
	TotalCompleted       int     `json:"total_completed"`
	TotalAvailable       int     `json:"total_available"`
	CompletionPercentage float64 `json:"completion_percentage"`
	Accuracy             float64 `json:"accuracy"`
}

type SolveRequest struct {
	Integral   string `json:"integral"`
	SolverType string `json:"solverType"`
}

type Solution struct {
	ID            int64    `json:"id,omitempty"`
	Input         string   `json:"input"`
	InputLatex    string   `json:"input_latex,omitempty"`
	Solution      string   `json:"solution"`
	SolutionLatex string   `json:"solution_latex,omitempty"`
	Steps         []string `json:"steps,omitempty"`
	SolverType    string   `json:"solver_type,omitempty"`
	SolvedAt      string   `json:"solved_at,omitempty"`
	DBWarning     string   `json:"db_warning,omitempty"`
}

type SaveRequest struct {
	Input      string   `json:"input"`
	Solution   string   `json:"solution"`
	Steps      []string `json:"steps,omitempty"`
	SolverType string   `json:"solver_type"`
}

type SaveResult struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

type HistoryItem struct {
	ID            int64    `json:"id"`
	Input         string   `json:"input"`
	InputLatex    string   `json:"input_latex,omitempty"`
	Solution      string   `json:"solution"`
	SolutionLatex string   `json:"solution_latex,omitempty"`
	Steps         []string `json:"steps,omitempty"`
	SolverType    string   `json:"solver_type"`
	CreatedAt     string   `json:"created_at"`
}

type HistoryPage struct {
	Problems    []HistoryItem `json:"problems"`
	Total       int           `json:"total"`
	Pages       int           `json:"pages"`
	CurrentPage int           `json:"current_page"`
}

type Progress struct {
	Completed bool `json:"completed"`
	Attempts  int  `json:"attempts"`
}

// Problem is the union of the three practice problem shapes; only the fields
// of the requested family are populated.
type Problem struct {
	ID           int64    `json:"id"`
	Difficulty   int      `json:"difficulty"`
	Technique    string   `json:"technique,omitempty"`
	Hint         string   `json:"hint,omitempty"`
	Steps        []string `json:"steps,omitempty"`
	UserProgress Progress `json:"user_progress"`

	ProblemText  string `json:"problem_text,omitempty"`
	ProblemLatex string `json:"problem_latex,omitempty"`

	XText  string `json:"x_t_text,omitempty"`
	XLatex string `json:"x_t_latex,omitempty"`
	YText  string `json:"y_t_text,omitempty"`
	YLatex string `json:"y_t_latex,omitempty"`

	InnerText         string `json:"inner_function_text,omitempty"`
	InnerLatex        string `json:"inner_function_latex,omitempty"`
	OuterText         string `json:"outer_function_text,omitempty"`
	OuterLatex        string `json:"outer_function_latex,omitempty"`
	LowerBoundDisplay string `json:"lower_bound_display,omitempty"`
	UpperBoundDisplay string `json:"upper_bound_display,omitempty"`
}

type AnswerRequest struct {
	ProblemID int64  `json:"problem_id"`
	Answer    string `json:"answer"`
}

type AnswerResult struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer,omitempty"`
	Attempts      int    `json:"attempts"`
	Completed     bool   `json:"completed"`
	Message       string `json:"message,omitempty"`
}

type GiveUpRequest struct {
	ProblemID   int64  `json:"problem_id"`
	ProblemType string `json:"problem_type"`
}

type GiveUpResult struct {
	CorrectAnswer      string `json:"correct_answer"`
	CorrectAnswerLatex string `json:"correct_answer_latex,omitempty"`
	Attempts           int    `json:"attempts"`
	Message            string `json:"message,omitempty"`
}
