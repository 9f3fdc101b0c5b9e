package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	enrollmentDomain "github.com/allisson/enrollments/internal/enrollment/domain"
	apperrors "github.com/allisson/enrollments/internal/errors"
)

// MongoDB collection names.
const (
	CoursesCollection = "courses"
	UsersCollection   = "users"
)

// Documents are shared with the course catalog and profile services, which key
// them by ObjectID and keep both enrollment arrays as ObjectIDs.
type courseDocument struct {
	ID               bson.ObjectID   `bson:"_id"`
	Name             string          `bson:"name"`
	Description      string          `bson:"description"`
	Price            int64           `bson:"price"`
	StudentsEnrolled []bson.ObjectID `bson:"studentsEnrolled"`
	UpdatedAt        time.Time       `bson:"updatedAt"`
}

func (d *courseDocument) toDomain() *enrollmentDomain.Course {
	return &enrollmentDomain.Course{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		Description:   d.Description,
		Price:         d.Price,
		EnrolledUsers: hexIDs(d.StudentsEnrolled),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

type userDocument struct {
	ID                   bson.ObjectID   `bson:"_id"`
	Email                string          `bson:"email"`
	FirstName            string          `bson:"firstName"`
	LastName             string          `bson:"lastName"`
	Courses              []bson.ObjectID `bson:"courses"`
	ScheduledForDeletion *time.Time      `bson:"scheduledForDeletion,omitempty"`
}

func (d *userDocument) toDomain() *enrollmentDomain.User {
	user := &enrollmentDomain.User{
		ID:        d.ID.Hex(),
		Email:     d.Email,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Courses:   hexIDs(d.Courses),
	}
	if d.ScheduledForDeletion != nil {
		at := d.ScheduledForDeletion.UTC()
		user.ScheduledForDeletion = &at
	}
	return user
}

func hexIDs(ids []bson.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	return out
}

// objectID parses a hex identifier. Anything else cannot match a document.
func objectID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.NilObjectID, apperrors.Wrapf(enrollmentDomain.ErrInvalidID, "%q is not an object id", id)
	}
	return oid, nil
}

func objectIDs(ids ...string) ([]bson.ObjectID, error) {
	out := make([]bson.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := objectID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, oid)
	}
	return out, nil
}

func membershipFilter(courseID, userID string) (bson.M, error) {
	oids, err := objectIDs(courseID, userID)
	if err != nil {
		return nil, err
	}
	return bson.M{"_id": oids[0], "studentsEnrolled": oids[1]}, nil
}

func addToSetUpdate(field, id string) (bson.M, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return bson.M{"$addToSet": bson.M{field: oid}}, nil
}

// MongoDBCourseRepository handles course persistence for MongoDB. The enrolled set
// is the studentsEnrolled array, maintained with $addToSet and $pull. Calls made
// with a context from database.NewMongoTxManager join its session transaction.
type MongoDBCourseRepository struct {
	collection *mongo.Collection
}

// NewMongoDBCourseRepository creates a new MongoDBCourseRepository.
func NewMongoDBCourseRepository(db *mongo.Database) *MongoDBCourseRepository {
	return &MongoDBCourseRepository{collection: db.Collection(CoursesCollection)}
}

// GetByID retrieves a course document.
func (r *MongoDBCourseRepository) GetByID(ctx context.Context, courseID string) (*enrollmentDomain.Course, error) {
	oid, err := objectID(courseID)
	if err != nil {
		return nil, err
	}

	var doc courseDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, enrollmentDomain.ErrCourseNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get course by id")
	}
	return doc.toDomain(), nil
}

// IsEnrolled checks whether userID is in the course's studentsEnrolled array.
func (r *MongoDBCourseRepository) IsEnrolled(ctx context.Context, courseID, userID string) (bool, error) {
	filter, err := membershipFilter(courseID, userID)
	if err != nil {
		return false, err
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check enrollment")
	}
	return count > 0, nil
}

// AddStudent adds userID to studentsEnrolled with $addToSet.
func (r *MongoDBCourseRepository) AddStudent(ctx context.Context, courseID, userID string) error {
	oid, err := objectID(courseID)
	if err != nil {
		return err
	}
	update, err := addToSetUpdate("studentsEnrolled", userID)
	if err != nil {
		return err
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return apperrors.Wrap(err, "failed to add student to course")
	}
	if result.MatchedCount == 0 {
		return enrollmentDomain.ErrCourseNotFound
	}
	return nil
}

// RemoveStudent pulls userID from every course's studentsEnrolled array.
func (r *MongoDBCourseRepository) RemoveStudent(ctx context.Context, userID string) error {
	oid, err := objectID(userID)
	if err != nil {
		return err
	}

	_, err = r.collection.UpdateMany(
		ctx,
		bson.M{"studentsEnrolled": oid},
		bson.M{"$pull": bson.M{"studentsEnrolled": oid}},
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to remove student from courses")
	}
	return nil
}

// MongoDBUserRepository handles user persistence for MongoDB. The enrolled-course
// set is the courses array.
type MongoDBUserRepository struct {
	collection *mongo.Collection
}

// NewMongoDBUserRepository creates a new MongoDBUserRepository.
func NewMongoDBUserRepository(db *mongo.Database) *MongoDBUserRepository {
	return &MongoDBUserRepository{collection: db.Collection(UsersCollection)}
}

// GetByID retrieves a user document.
func (r *MongoDBUserRepository) GetByID(ctx context.Context, userID string) (*enrollmentDomain.User, error) {
	oid, err := objectID(userID)
	if err != nil {
		return nil, err
	}

	var doc userDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, enrollmentDomain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user by id")
	}
	return doc.toDomain(), nil
}

// AddCourse adds courseID to the user's courses with $addToSet.
func (r *MongoDBUserRepository) AddCourse(ctx context.Context, userID, courseID string) error {
	oid, err := objectID(userID)
	if err != nil {
		return err
	}
	update, err := addToSetUpdate("courses", courseID)
	if err != nil {
		return err
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return apperrors.Wrap(err, "failed to add course to user")
	}
	if result.MatchedCount == 0 {
		return enrollmentDomain.ErrUserNotFound
	}
	return nil
}

// ScheduleDeletion sets scheduledForDeletion on the user document.
func (r *MongoDBUserRepository) ScheduleDeletion(ctx context.Context, userID string, at time.Time) error {
	oid, err := objectID(userID)
	if err != nil {
		return err
	}

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"scheduledForDeletion": at}},
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to schedule user deletion")
	}
	if result.MatchedCount == 0 {
		return enrollmentDomain.ErrUserNotFound
	}
	return nil
}

// ListScheduledForDeletion returns users whose deletion date is at or before the given time.
func (r *MongoDBUserRepository) ListScheduledForDeletion(
	ctx context.Context,
	before time.Time,
	limit int,
) ([]*enrollmentDomain.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "scheduledForDeletion", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"scheduledForDeletion": bson.M{"$lte": before}}, opts)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list users scheduled for deletion")
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode users scheduled for deletion")
	}

	users := make([]*enrollmentDomain.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toDomain())
	}
	return users, nil
}

// Delete removes the user document.
func (r *MongoDBUserRepository) Delete(ctx context.Context, userID string) error {
	oid, err := objectID(userID)
	if err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return apperrors.Wrap(err, "failed to delete user")
	}
	if result.DeletedCount == 0 {
		return enrollmentDomain.ErrUserNotFound
	}
	return nil
}

// EnsureMongoDBIndexes creates the indexes used by the enrollment queries.
func EnsureMongoDBIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(CoursesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "studentsEnrolled", Value: 1}},
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to create courses index")
	}

	_, err = db.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "scheduledForDeletion", Value: 1}},
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to create users index")
	}
	return nil
}
