// Package student exposes the student directory the core collaborates with.
// Account management itself lives outside this service.
package student

import "go.mongodb.org/mongo-driver/bson/primitive"

// Student is the directory snapshot the core needs: certificate rendering,
// verification responses, and notification addressing.
type Student struct {
	InternalID  primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	StudentID   string             `bson:"studentId" json:"student_id"`
	DisplayName string             `bson:"displayName" json:"display_name"`
	Email       string             `bson:"email" json:"email"`
	Department  string             `bson:"department" json:"department"`
	Year        int                `bson:"year" json:"year"`
}
