package dummydb

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/classroom"
)

type ClassroomRepository struct {
	db *classroomTable

	mu    sync.Mutex
	calls []string
}

var _ classroom.Repository = (*ClassroomRepository)(nil)

func NewClassroomRepository(db *DB) *ClassroomRepository {
	return &ClassroomRepository{db: db.classroom}
}

// Calls returns the names of the repository methods invoked so far,
// in order. Tests use it to assert that rejected requests never hit the store.
func (repo *ClassroomRepository) Calls() []string {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	calls := make([]string, len(repo.calls))
	copy(calls, repo.calls)
	return calls
}

func (repo *ClassroomRepository) record(name string) {
	repo.mu.Lock()
	repo.calls = append(repo.calls, name)
	repo.mu.Unlock()
}

func (repo *ClassroomRepository) query() []classroom.Classroom {
	classrooms := make([]classroom.Classroom, 0, len(repo.db.table))
	for _, cls := range repo.db.table {
		classrooms = append(classrooms, *cls)
	}
	return classrooms
}

func (repo *ClassroomRepository) CreateClassroom(_ context.Context, cls classroom.Classroom) (classroom.Classroom, error) {
	repo.record("CreateClassroom")
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.Code == cls.Code {
			return classroom.Classroom{}, classroom.ErrCodeExists
		}
	}

	cls.ID = uuid.New().String()
	if cls.Students == nil {
		cls.Students = []classroom.Student{}
	}
	repo.db.table[cls.ID] = &cls
	return cls, nil
}

func (repo *ClassroomRepository) QueryClassrooms(_ context.Context, filter *classroom.QueryFilter, ordering []core.DBOrdering) ([]classroom.Classroom, error) {
	repo.record("QueryClassrooms")
	repo.db.RLock()
	defer repo.db.RUnlock()

	classrooms := make([]classroom.Classroom, 0)
	for _, cls := range repo.query() {
		if filter != nil && filter.OrganizationID != "" && cls.OrganizationID != filter.OrganizationID {
			continue
		}
		classrooms = append(classrooms, cls)
	}

	for _, ord := range ordering {
		if ord.Field != "created_at" {
			continue
		}
		asc := ord.Ascending
		sort.SliceStable(classrooms, func(i, j int) bool {
			if asc {
				return classrooms[i].CreatedAt.Before(classrooms[j].CreatedAt)
			}
			return classrooms[i].CreatedAt.After(classrooms[j].CreatedAt)
		})
	}
	return classrooms, nil
}

func (repo *ClassroomRepository) GetClassroomByID(_ context.Context, id string) (classroom.Classroom, error) {
	repo.record("GetClassroomByID")
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cls, ok := repo.db.table[id]; ok {
		return *cls, nil
	}
	return classroom.Classroom{}, classroom.ErrNotFound
}

func (repo *ClassroomRepository) GetClassroomByCode(_ context.Context, code string) (classroom.Classroom, error) {
	repo.record("GetClassroomByCode")
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, cls := range repo.query() {
		if cls.Code == code {
			return cls, nil
		}
	}
	return classroom.Classroom{}, classroom.ErrNotFound
}

func (repo *ClassroomRepository) AddStudent(_ context.Context, classroomID string, st classroom.Student) (classroom.Classroom, error) {
	repo.record("AddStudent")
	repo.db.Lock()
	defer repo.db.Unlock()

	cls, ok := repo.db.table[classroomID]
	if !ok {
		return classroom.Classroom{}, classroom.ErrNotFound
	}
	if cls.HasStudent(st.UserID) {
		return classroom.Classroom{}, classroom.ErrAlreadyJoined
	}

	cls.Students = append(cls.Students, st)
	cls.StudentCount = len(cls.Students)
	cls.UpdatedAt = st.JoinedAt
	return *cls, nil
}
