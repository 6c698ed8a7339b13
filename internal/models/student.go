package models

// Student is a learner record as returned by the student lookup service.
// The roster service owns the data; the gateway never mutates it.
type Student struct {
	NationalID  string `json:"nationalId"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	StudentType string `json:"type"`
	Nationality string `json:"nationality"`
	Level       string `json:"level"`
	Diploma     string `json:"diploma"`
	Branch      string `json:"branch"`
}

// StudyInfo is one program enrollment row from the study-info service,
// used as the branch roster for monthly reporting.
type StudyInfo struct {
	NationalID  string `json:"nationalId"`
	StudentName string `json:"studentName"`
	DiplomName  string `json:"diplomName"`
	LevelName   string `json:"levelName"`
	BatchName   string `json:"batchName"`
	AccountGUID string `json:"accountGuid"`
}
