package mongorepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/classroom"
)

const classroomCollection = "classrooms"

type classroomRepository struct {
	coll *mongo.Collection
}

var _ classroom.Repository = (*classroomRepository)(nil) // interface compliance check

func NewClassroomRepository(db *mongo.Database) *classroomRepository {
	return &classroomRepository{coll: db.Collection(classroomCollection)}
}

// EnsureIndexes creates the unique index on the normalized join code.
// Code uniqueness is enforced here, at the store layer: concurrent creates
// with the same code surface as a duplicate key error, never a silent overwrite.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(classroomCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_code"),
	})
	return errors.Wrap(err, "creating classroom indexes")
}

// trapNoDocsErr maps the driver's "no documents" err to classroom.ErrNotFound
func (repo classroomRepository) trapNoDocsErr(err error, msg string) error {
	if err == mongo.ErrNoDocuments {
		return classroom.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func isDuplicateKeyErr(err error) bool {
	var wErr mongo.WriteException
	if errors.As(err, &wErr) {
		for _, we := range wErr.WriteErrors {
			if we.Code == 11000 {
				return true
			}
		}
	}
	return false
}

func (repo classroomRepository) CreateClassroom(ctx context.Context, cls classroom.Classroom) (classroom.Classroom, error) {
	cls.ID = uuid.New().String()
	if cls.Students == nil {
		cls.Students = []classroom.Student{}
	}
	if _, err := repo.coll.InsertOne(ctx, cls); err != nil {
		if isDuplicateKeyErr(err) {
			return classroom.Classroom{}, classroom.ErrCodeExists
		}
		return classroom.Classroom{}, errors.Wrap(err, "inserting classroom")
	}
	return cls, nil
}

func (repo classroomRepository) QueryClassrooms(ctx context.Context, filter *classroom.QueryFilter, ordering []core.DBOrdering) ([]classroom.Classroom, error) {
	query := bson.M{}
	if filter != nil && filter.OrganizationID != "" {
		query["organization_id"] = filter.OrganizationID
	}

	opts := options.Find()
	if len(ordering) > 0 {
		sort := make(bson.D, 0, len(ordering))
		for _, ord := range ordering {
			direction := -1
			if ord.Ascending {
				direction = 1
			}
			sort = append(sort, bson.E{Key: ord.Field, Value: direction})
		}
		opts.SetSort(sort)
	}

	cur, err := repo.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying classrooms")
	}
	classrooms := make([]classroom.Classroom, 0)
	if err = cur.All(ctx, &classrooms); err != nil {
		return nil, errors.Wrap(err, "decoding classrooms")
	}
	return classrooms, nil
}

func (repo classroomRepository) GetClassroomByID(ctx context.Context, id string) (classroom.Classroom, error) {
	var cls classroom.Classroom
	if err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&cls); err != nil {
		return classroom.Classroom{}, repo.trapNoDocsErr(err, "finding classroom by id")
	}
	return cls, nil
}

func (repo classroomRepository) GetClassroomByCode(ctx context.Context, code string) (classroom.Classroom, error) {
	var cls classroom.Classroom
	if err := repo.coll.FindOne(ctx, bson.M{"code": code}).Decode(&cls); err != nil {
		return classroom.Classroom{}, repo.trapNoDocsErr(err, "finding classroom by code")
	}
	return cls, nil
}

// AddStudent appends the membership record with a single conditional pipeline
// update: the filter only matches while the student is absent from the roster,
// and student_count is recomputed from the appended roster in the same update.
// The duplicate check, append and count can therefore never be torn apart by
// a concurrent join.
func (repo classroomRepository) AddStudent(ctx context.Context, classroomID string, st classroom.Student) (classroom.Classroom, error) {
	filter := bson.M{
		"_id":              classroomID,
		"students.user_id": bson.M{"$ne": st.UserID},
	}
	record := bson.M{
		"user_id":   st.UserID,
		"email":     st.Email,
		"joined_at": primitive.NewDateTimeFromTime(st.JoinedAt),
	}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"students": bson.M{"$concatArrays": bson.A{"$students", bson.A{record}}},
		}}},
		{{Key: "$set", Value: bson.M{
			"student_count": bson.M{"$size": "$students"},
			"updated_at":    primitive.NewDateTimeFromTime(st.JoinedAt),
		}}},
	}

	res := repo.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var cls classroom.Classroom
	if err := res.Decode(&cls); err != nil {
		if err != mongo.ErrNoDocuments {
			return classroom.Classroom{}, errors.Wrap(err, "adding student to classroom")
		}
		// no match: the classroom is absent, or the student is already enrolled
		if _, err = repo.GetClassroomByID(ctx, classroomID); err != nil {
			return classroom.Classroom{}, err
		}
		return classroom.Classroom{}, classroom.ErrAlreadyJoined
	}
	return cls, nil
}
