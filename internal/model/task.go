package model

import "time"

// Task は保護者が学習者に割り当てる課題を表す。
type Task struct {
	ID          string
	StudentID   string
	ParentID    string
	Title       string
	Description string
	Difficulty  TaskDifficulty
	Category    TaskCategory
	Status      TaskStatus
	Points      int
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// TaskDifficulty は課題の難易度を表す。
type TaskDifficulty string

const (
	// TaskDifficultyEasy は易しい課題。
	TaskDifficultyEasy TaskDifficulty = "easy"
	// TaskDifficultyMedium は普通の課題。
	TaskDifficultyMedium TaskDifficulty = "medium"
	// TaskDifficultyHard は難しい課題。
	TaskDifficultyHard TaskDifficulty = "hard"
)

// TaskCategory は課題の分類を表す。
type TaskCategory string

const (
	// TaskCategoryAcademic は学習課題。
	TaskCategoryAcademic TaskCategory = "academic"
	// TaskCategoryLifeSkills は生活スキル課題。
	TaskCategoryLifeSkills TaskCategory = "life_skills"
	// TaskCategorySocial は社会性課題。
	TaskCategorySocial TaskCategory = "social"
	// TaskCategoryBehavior は行動課題。
	TaskCategoryBehavior TaskCategory = "behavior"
)

// TaskStatus は課題の進行状態を表す。
type TaskStatus string

const (
	// TaskStatusPending は未着手の課題。
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusInProgress は進行中の課題。
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusCompleted は完了した課題。
	TaskStatusCompleted TaskStatus = "completed"
)

// ValidTaskDifficulty は難易度の値が定義済みかを検証する。
func ValidTaskDifficulty(d TaskDifficulty) bool {
	switch d {
	case TaskDifficultyEasy, TaskDifficultyMedium, TaskDifficultyHard:
		return true
	}
	return false
}

// ValidTaskCategory は分類の値が定義済みかを検証する。
func ValidTaskCategory(c TaskCategory) bool {
	switch c {
	case TaskCategoryAcademic, TaskCategoryLifeSkills, TaskCategorySocial, TaskCategoryBehavior:
		return true
	}
	return false
}
