package validators

import "go.mongodb.org/mongo-driver/bson"

var objectIDString = bson.M{
	"bsonType":  "string",
	"minLength": 24,
	"maxLength": 24,
}

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"member_id",
			"trainer_id",
			"service_id",
			"start_time",
			"end_time",
			"duration_minutes",
			"price_cents",
			"status",
			"is_active",
			"created_at",
			"updated_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"member_id":  objectIDString,
			"trainer_id": objectIDString,
			"service_id": objectIDString,

			"start_time": bson.M{
				"bsonType": "date",
			},

			"end_time": bson.M{
				"bsonType": "date",
			},

			"duration_minutes": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  1440,
			},

			"price_cents": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"notes": bson.M{
				"bsonType": "string",
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"confirmed",
					"completed",
					"cancelled",
				},
			},

			"is_active": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
