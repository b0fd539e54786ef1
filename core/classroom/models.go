package classroom

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/darasahq/darasa/core"
)

// Student is the membership record of one student in one classroom's roster.
type Student struct {
	UserID   string    `bson:"user_id" json:"user_id"`
	Email    string    `bson:"email" json:"email"`
	JoinedAt time.Time `bson:"joined_at" json:"joined_at"` // UTC
}

type Classroom struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	Name           string    `bson:"name" json:"name"`
	Subject        string    `bson:"subject" json:"subject"`
	Description    string    `bson:"description,omitempty" json:"description"`
	Code           string    `bson:"code" json:"code"` // normalized to uppercase; unique store-wide
	OrganizationID string    `bson:"organization_id" json:"organization_id"`
	Students       []Student `bson:"students" json:"students"`
	StudentCount   int       `bson:"student_count" json:"student_count"` // always == len(Students)
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`       // UTC
	UpdatedAt      time.Time `bson:"updated_at" json:"updated_at"`       // UTC
}

func (c *Classroom) HasStudent(userID string) bool {
	for _, st := range c.Students {
		if st.UserID == userID {
			return true
		}
	}
	return false
}

// PublicInfo is the projection exposed on unauthenticated paths;
// it never includes the roster.
type PublicInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Subject      string `json:"subject"`
	Description  string `json:"description,omitempty"`
	Code         string `json:"code"`
	StudentCount int    `json:"student_count"`
}

func (c *Classroom) PublicInfo() PublicInfo {
	return PublicInfo{
		ID:           c.ID,
		Name:         c.Name,
		Subject:      c.Subject,
		Description:  c.Description,
		Code:         c.Code,
		StudentCount: c.StudentCount,
	}
}

// NewClassroom contains information needed to create a new Classroom.
type NewClassroom struct {
	Name           string `json:"name" validate:"required"`
	Subject        string `json:"subject" validate:"required"`
	Description    string `json:"description"`
	Code           string `json:"code" validate:"omitempty,min=4,max=10,joincode"`
	OrganizationID string `json:"organization_id"`
}

func (nc *NewClassroom) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Subject = core.CleanString(nc.Subject)
	nc.Description = core.CleanString(nc.Description)
	nc.Code = NormalizeCode(nc.Code)
	nc.OrganizationID = core.CleanString(nc.OrganizationID)
	return validate.Struct(nc)
}

// JoinClassroom contains information needed to enroll a student in a Classroom.
// StudentID and StudentEmail are caller-supplied facts: student identities may
// live in a separate identity domain and differ from the session principal.
type JoinClassroom struct {
	ClassroomID  string `json:"classroom_id" validate:"required"`
	StudentID    string `json:"student_id" validate:"required"`
	StudentEmail string `json:"student_email" validate:"required,email"`
}

func (jc *JoinClassroom) Validate(validate *validator.Validate) error {
	jc.ClassroomID = core.CleanString(jc.ClassroomID)
	jc.StudentID = core.CleanString(jc.StudentID)
	jc.StudentEmail = core.CleanString(jc.StudentEmail, true /* lower */)
	return validate.Struct(jc)
}

type QueryFilter struct {
	OrganizationID string `json:"organization_id" query:"organization_id"`
}

func (f *QueryFilter) Clean() {
	f.OrganizationID = core.CleanString(f.OrganizationID)
}
