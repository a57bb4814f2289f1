package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleJudge       Role = "JUDGE"
	RoleParticipant Role = "PARTICIPANT"
)

type VideoStatus string

const (
	VideoPendingUpload     VideoStatus = "PENDING_UPLOAD"
	VideoPendingValidation VideoStatus = "PENDING_VALIDATION"
	VideoValidated         VideoStatus = "VALIDATED"
	VideoRejected          VideoStatus = "REJECTED"
)

// IsPending reports whether the video still waits for an upload or a validation.
func (s VideoStatus) IsPending() bool {
	return s == VideoPendingUpload || s == VideoPendingValidation
}

func newID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

type Admin struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"uniqueIndex;not null"`
	Name         string
	Password     string `gorm:"-"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (a *Admin) BeforeCreate(tx *gorm.DB) error {
	newID(&a.ID)
	return nil
}

func (a *Admin) BeforeSave(tx *gorm.DB) error {
	return hashInto(a.Password, &a.PasswordHash)
}

type Judge struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name          string    `gorm:"not null"`
	Email         string    `gorm:"uniqueIndex;not null"`
	TempPassword  string    `gorm:"-"`
	PasswordHash  string    `gorm:"not null"`
	ResetRequired bool
	IsActive      bool
	Evaluations   []Evaluation `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (j *Judge) BeforeCreate(tx *gorm.DB) error {
	newID(&j.ID)
	return nil
}

func (j *Judge) BeforeSave(tx *gorm.DB) error {
	return hashInto(j.TempPassword, &j.PasswordHash)
}

func hashInto(plain string, hash *string) error {
	if plain == "" {
		return nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	*hash = string(hashed)
	return nil
}

type Participant struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	FirstName       string    `gorm:"not null"`
	LastName        string    `gorm:"not null"`
	Email           string    `gorm:"uniqueIndex;not null"`
	BirthDate       time.Time
	InstagramHandle string `gorm:"index"`
	Video           *Video `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (p *Participant) BeforeCreate(tx *gorm.DB) error {
	newID(&p.ID)
	return nil
}

func (p Participant) FullName() string {
	return p.FirstName + " " + p.LastName
}

type Video struct {
	ID                uuid.UUID    `gorm:"type:uuid;primaryKey"`
	ParticipantID     uuid.UUID    `gorm:"type:uuid;uniqueIndex;not null"`
	Participant       *Participant
	Status            VideoStatus  `gorm:"type:varchar(32);index;not null"`
	StorageKey        string
	InstagramURL      string
	InstagramLikes    *int
	LastInstagramSync *time.Time
	ClosingLikes      *int
	ClosingLikesAt    *time.Time
	IsJudgeSelected   bool
	ValidatedAt       *time.Time
	Resolution        string
	FPS               float64
	Duration          Interval     `gorm:"type:interval"`
	Evaluations       []Evaluation `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (v *Video) BeforeCreate(tx *gorm.DB) error {
	newID(&v.ID)
	if v.Status == "" {
		v.Status = VideoPendingUpload
	}
	return nil
}

// Validate marks the video as compliant.
func (v *Video) Validate(now time.Time) {
	v.Status = VideoValidated
	v.ValidatedAt = &now
}

// Likes returns the frozen closing count when one exists and the contest is closed,
// otherwise the live count.
func (v Video) Likes(contestClosed bool) *int {
	if contestClosed && v.ClosingLikes != nil {
		return v.ClosingLikes
	}
	return v.InstagramLikes
}

type Criterion struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Description  string    `json:"description"`
	Weight       float64   `gorm:"not null" json:"weight"`
	MaxScore     int       `gorm:"not null" json:"maxScore"`
	DisplayOrder int       `json:"displayOrder"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (c *Criterion) BeforeCreate(tx *gorm.DB) error {
	newID(&c.ID)
	return nil
}

type Evaluation struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey"`
	VideoID         uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_evaluation_video_judge"`
	JudgeID         uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_evaluation_video_judge"`
	TotalScore      float64          `gorm:"not null"`
	GeneralComments string           `gorm:"type:text"`
	EvaluatedAt     time.Time        `gorm:"not null"`
	Scores          []CriterionScore `gorm:"constraint:OnDelete:CASCADE"`
	Video           *Video
	Judge           *Judge
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (e *Evaluation) BeforeCreate(tx *gorm.DB) error {
	newID(&e.ID)
	return nil
}

type CriterionScore struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	EvaluationID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_score_evaluation_criterion"`
	CriterionID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_score_evaluation_criterion;index"`
	Criterion    *Criterion `gorm:"constraint:OnDelete:RESTRICT"`
	Score        float64    `gorm:"not null"`
	Comments     string     `gorm:"type:text"`
}

func (s *CriterionScore) BeforeCreate(tx *gorm.DB) error {
	newID(&s.ID)
	return nil
}

type ContestSetting struct {
	Key       string `gorm:"primaryKey;size:64"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ActorID    string    `gorm:"index" json:"actorId"`
	ActorRole  Role      `gorm:"type:varchar(16)" json:"actorRole"`
	Action     string    `gorm:"index;not null" json:"action"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	Details    string    `gorm:"type:text" json:"details,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	newID(&a.ID)
	return nil
}

type InstagramConfig struct {
	ID                uint `gorm:"primaryKey"`
	AccessToken       string
	BusinessAccountID string
	UpdatedAt         time.Time
}

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&Admin{}, &Judge{}, &Participant{}, &Video{}, &Criterion{},
		&Evaluation{}, &CriterionScore{}, &ContestSetting{}, &AuditLog{}, &InstagramConfig{},
	}
}
