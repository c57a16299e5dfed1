package crm

// Mirror models of remote CRM records. The remote API is the only
// durable store; nothing here is persisted locally.

type Contact struct {
	ID           string            `json:"id"`
	FirstName    string            `json:"firstName"`
	LastName     string            `json:"lastName"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone"`
	Tags         []string          `json:"tags"`
	CustomFields map[string]string `json:"customFields"`
	DateAdded    string            `json:"dateAdded"`
	DateUpdated  string            `json:"dateUpdated"`
}

type Task struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Body       string   `json:"body,omitempty"`
	DueDate    string   `json:"dueDate"`
	AssignedTo string   `json:"assignedTo"`
	ContactID  string   `json:"contactId,omitempty"`
	Completed  bool     `json:"completed"`
	Priority   string   `json:"priority"`
	Tags       []string `json:"tags,omitempty"`
}

type Calendar struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

type Location struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

type User struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

type Opportunity struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	PipelineID    string  `json:"pipelineId"`
	StageID       string  `json:"pipelineStageId"`
	ContactID     string  `json:"contactId"`
	MonetaryValue float64 `json:"monetaryValue"`
	Status        string  `json:"status"`
}

type Campaign struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type Appointment struct {
	ID         string `json:"id"`
	CalendarID string `json:"calendarId"`
	ContactID  string `json:"contactId"`
	Title      string `json:"title,omitempty"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	Status     string `json:"status"`
	Timezone   string `json:"timezone,omitempty"`
}

// FreeSlot is one bookable start time reported by the free-busy
// endpoint, in RFC3339 with the calendar's offset.
type FreeSlot struct {
	Start string `json:"start"`
	End   string `json:"end,omitempty"`
}
