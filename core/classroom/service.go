package classroom

import (
	"context"
	"errors"
	"time"

	"github.com/darasahq/darasa/core"
)

var (
	// errors
	ErrNotFound      = errors.New("classroom not found")
	ErrCodeExists    = errors.New("a classroom with this code already exists")
	ErrAlreadyJoined = errors.New("student has already joined this classroom")
)

type (
	Repository interface {
		// CreateClassroom persists a new Classroom and assigns its ID.
		// A code collision returns ErrCodeExists.
		CreateClassroom(ctx context.Context, cls Classroom) (Classroom, error)
		// QueryClassrooms applies AND operation on available QueryFilter fields.
		QueryClassrooms(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Classroom, error)
		GetClassroomByID(ctx context.Context, id string) (Classroom, error)
		// GetClassroomByCode does an exact match on a normalized code.
		GetClassroomByCode(ctx context.Context, code string) (Classroom, error)
		// AddStudent appends `st` to the classroom's roster and recomputes
		// StudentCount from the roster length, as one atomic append-if-absent
		// operation: a roster already holding st.UserID returns ErrAlreadyJoined
		// with no mutation.
		AddStudent(ctx context.Context, classroomID string, st Student) (Classroom, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

var defaultOrdering = []core.DBOrdering{{Field: "created_at", Ascending: false}}

// Create persists a new Classroom with an empty roster, scoped to the
// principal's organization when the payload does not name one.
func (svc *Service) Create(ctx context.Context, principal core.Principal, nc NewClassroom) (Classroom, error) {
	code := NormalizeCode(nc.Code)
	if code == "" {
		code = GenerateCode()
	}
	orgID := nc.OrganizationID
	if orgID == "" {
		if orgID = principal.OrganizationID; orgID == "" {
			orgID = principal.ID
		}
	}

	now := time.Now().UTC()
	cls := Classroom{
		Name:           nc.Name,
		Subject:        nc.Subject,
		Description:    nc.Description,
		Code:           code,
		OrganizationID: orgID,
		Students:       []Student{},
		StudentCount:   0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return svc.repo.CreateClassroom(ctx, cls)
}

// Query lists classrooms, newest first by default. An empty organization
// filter is scoped to the principal so users never see other orgs' classrooms.
func (svc *Service) Query(ctx context.Context, principal core.Principal, filter *QueryFilter, ordering []core.DBOrdering) ([]Classroom, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	filter.Clean()
	if filter.OrganizationID == "" {
		if filter.OrganizationID = principal.OrganizationID; filter.OrganizationID == "" {
			filter.OrganizationID = principal.ID
		}
	}
	if len(ordering) == 0 {
		ordering = defaultOrdering
	}
	return svc.repo.QueryClassrooms(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Classroom, error) {
	return svc.repo.GetClassroomByID(ctx, core.CleanString(id))
}

// VerifyCode looks up a classroom by its join code, case-insensitively.
// An unknown code returns ErrNotFound; that is a normal outcome, not a failure.
func (svc *Service) VerifyCode(ctx context.Context, code string) (Classroom, error) {
	return svc.repo.GetClassroomByCode(ctx, NormalizeCode(code))
}

// Join enrolls a student in a classroom. The duplicate check, roster append
// and count recompute happen in one store operation so two concurrent joins
// for the same student cannot both succeed.
func (svc *Service) Join(ctx context.Context, jc JoinClassroom) (Classroom, error) {
	st := Student{
		UserID:   jc.StudentID,
		Email:    core.CleanString(jc.StudentEmail, true /* lower */),
		JoinedAt: time.Now().UTC(),
	}
	return svc.repo.AddStudent(ctx, jc.ClassroomID, st)
}
