package validators

import "go.mongodb.org/mongo-driver/bson"

// "HH:MM" on a 24h clock, plus "24:00" for end of day.
const timeOfDayPattern = `^(([01][0-9]|2[0-3]):[0-5][0-9]|24:00)$`

var AvailabilityWindowValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"trainer_id",
			"day_of_week",
			"start_time",
			"end_time",
			"is_active",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"trainer_id": objectIDString,

			// time.Weekday: 0 is Sunday.
			"day_of_week": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
				"maximum":  6,
			},

			"start_time": bson.M{
				"bsonType": "string",
				"pattern":  timeOfDayPattern,
			},

			"end_time": bson.M{
				"bsonType": "string",
				"pattern":  timeOfDayPattern,
			},

			"is_active": bson.M{
				"bsonType": "bool",
			},
		},
	},
}
