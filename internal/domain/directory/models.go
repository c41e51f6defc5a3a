package directory

import (
	"errors"
	"time"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

const (
	EmploymentFullTime = "full_time"
	EmploymentPartTime = "part_time"
	EmploymentCasual   = "casual"
	EmploymentContract = "contract"
)

var EmploymentTypes = []string{
	EmploymentFullTime,
	EmploymentPartTime,
	EmploymentCasual,
	EmploymentContract,
}

var ErrNotFound = errors.New("employee not found")

// Employee is directory data owned by the wider HR system; the leave engine
// only reads identity, employment type, active status and start date.
type Employee struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId,omitempty"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	Email          string     `json:"email,omitempty"`
	EmploymentType string     `json:"employmentType"`
	Status         string     `json:"status"`
	StartDate      time.Time  `json:"startDate"`
	ManagerID      *string    `json:"managerId,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func (e Employee) Active() bool { return e.Status == StatusActive }

func ValidEmploymentType(value string) bool {
	for _, et := range EmploymentTypes {
		if et == value {
			return true
		}
	}
	return false
}
