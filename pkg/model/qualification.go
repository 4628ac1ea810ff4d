package model

// Qualification links a trainer to a service they are allowed to deliver.
type Qualification struct {
	ID        string `json:"id,omitempty" bson:"_id,omitempty"`
	TrainerID string `json:"trainer_id" bson:"trainer_id"`
	ServiceID string `json:"service_id" bson:"service_id"`
	IsActive  bool   `json:"is_active" bson:"is_active"`
}
