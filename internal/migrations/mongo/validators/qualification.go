package validators

import "go.mongodb.org/mongo-driver/bson"

var QualificationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"trainer_id", "service_id", "is_active"},
		"additionalProperties": true,
		"properties": bson.M{
			"trainer_id": objectIDString,
			"service_id": objectIDString,
			"is_active":  bson.M{"bsonType": "bool"},
		},
	},
}
