package models

// TeachingSubmission is the payload accepted by the teaching-data write
// endpoint. Diploma and subject identifiers are freshly generated per
// submission; the creator guid comes from the session.
type TeachingSubmission struct {
	TrainerGeoID string `json:"trainer_geo_id"`
	TrainerName  string `json:"trainer_name"`
	TrainerGUID  string `json:"trainer_guid"`
	StudyLevel   string `json:"study_level"`
	DiplomaID    string `json:"diploma_id"`
	DiplomaName  string `json:"diploma_name"`
	SubjectID    string `json:"subject_id"`
	SubjectName  string `json:"subject_name"`
}

// TeachingSubject is one subject taught under a diploma.
type TeachingSubject struct {
	SubjectID   string `json:"subject_id"`
	SubjectName string `json:"subject_name"`
	StudyLevel  string `json:"study_level"`
}

// TeachingDiploma groups the subjects a trainer covers for one diploma.
type TeachingDiploma struct {
	DiplomaID   string            `json:"diploma_id"`
	DiplomaName string            `json:"diploma_name"`
	Subjects    []TeachingSubject `json:"subjects"`
}

// TrainerTeaching is the teaching-data read shape: one trainer with their
// diplomas and nested subjects.
type TrainerTeaching struct {
	TrainerGUID string            `json:"trainer_guid"`
	TrainerName string            `json:"trainer_name"`
	Diplomas    []TeachingDiploma `json:"diplomas"`
}

// Trainer is a selectable trainer derived from the upstream user list.
type Trainer struct {
	GUID     string `json:"guid"`
	FullName string `json:"full_name"`
}

// TeachingStats summarises the teaching data for the course report.
type TeachingStats struct {
	TotalTrainers  int      `json:"total_trainers"`
	TotalDiplomas  int      `json:"total_diplomas"`
	TotalSubjects  int      `json:"total_subjects"`
	UniqueDiplomas []string `json:"unique_diplomas"`
}
