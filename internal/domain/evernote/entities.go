package evernote

// Notebook is one row of the archive's notebooks table. Stack is the
// optional parent group Evernote shows notebooks under.
type Notebook struct {
	GUID  string `json:"guid"`
	Name  string `json:"name"`
	Stack string `json:"stack"`
}

// Note is the decoded payload of one notes row. Content holds the full
// ENML document; the converter extracts the <en-note> body itself.
type Note struct {
	GUID       string         `json:"guid"`
	Title      string         `json:"title"`
	Content    string         `json:"content"`
	Created    int64          `json:"created"`
	Updated    int64          `json:"updated"`
	Active     bool           `json:"active"`
	TagNames   []string       `json:"tagNames"`
	Attributes NoteAttributes `json:"attributes"`
	Resources  []Resource     `json:"resources"`

	// Tasks are attached by the archive reader from the tasks table;
	// they are not part of the note payload itself.
	Tasks []Task `json:"-"`
}

type NoteAttributes struct {
	Author    string  `json:"author"`
	SourceURL string  `json:"sourceURL"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	PlaceName string  `json:"placeName"`
}

// Resource is an attachment carried by a note. BodyHash is the lowercase
// hex MD5 Evernote uses to reference the resource from <en-media> tags.
type Resource struct {
	GUID       string             `json:"guid"`
	Mime       string             `json:"mime"`
	Width      int                `json:"width"`
	Height     int                `json:"height"`
	Data       ResourceData       `json:"data"`
	Attributes ResourceAttributes `json:"attributes"`
}

type ResourceData struct {
	Size     int    `json:"size"`
	BodyHash string `json:"bodyHash"`
	Body     []byte `json:"body"`
}

type ResourceAttributes struct {
	FileName string `json:"fileName"`
}

// Task is the decoded payload of one tasks row. DueDate and reminder
// dates are epoch milliseconds, interpreted in TimeZone.
type Task struct {
	GUID        string     `json:"guid"`
	Label       string     `json:"label"`
	DueDate     int64      `json:"dueDate"`
	TimeZone    string     `json:"timeZone"`
	Flag        bool       `json:"flag"`
	Status      string     `json:"status"`
	GroupID     string     `json:"taskGroupNoteLevelID"`
	Assignee    string     `json:"assignee"`
	Description string     `json:"description"`
	Reminders   []Reminder `json:"reminders"`
}

func (t Task) Completed() bool { return t.Status == "completed" }

type Reminder struct {
	GUID         string `json:"guid"`
	ReminderDate int64  `json:"reminderDate"`
	TimeZone     string `json:"timeZone"`
	Status       string `json:"status"`
}

func (r Reminder) Active() bool { return r.Status == "active" }
