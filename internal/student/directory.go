package student

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	dErrors "cleargate/pkg/domain-errors"
)

// Directory resolves students by their university ID.
type Directory interface {
	FindByID(ctx context.Context, studentID string) (*Student, error)
}

const studentCollection = "students"

// MongoDirectory reads the students collection maintained by the account
// management system.
type MongoDirectory struct {
	coll *mongo.Collection
}

func NewMongoDirectory(db *mongo.Database) *MongoDirectory {
	return &MongoDirectory{coll: db.Collection(studentCollection)}
}

func (d *MongoDirectory) FindByID(ctx context.Context, studentID string) (*Student, error) {
	var st Student
	err := d.coll.FindOne(ctx, bson.M{"studentId": studentID}).Decode(&st)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, dErrors.New(dErrors.CodeNotFound, "student not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "find student failed")
	}
	return &st, nil
}

// InMemoryDirectory serves unit tests and dev mode.
type InMemoryDirectory struct {
	mu       sync.RWMutex
	students map[string]Student
}

func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{students: make(map[string]Student)}
}

func (d *InMemoryDirectory) Add(st Student) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.students[st.StudentID] = st
}

func (d *InMemoryDirectory) FindByID(_ context.Context, studentID string) (*Student, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	st, ok := d.students[studentID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "student not found")
	}
	return &st, nil
}
