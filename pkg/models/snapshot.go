package models

import "time"

// Snapshot is one complete, internally consistent hydration result. It is
// never modified after it has been published; readers share it freely.
type Snapshot struct {
	Generation  uint64            `json:"generation"`
	FetchedAt   time.Time         `json:"fetchedAt"`
	FetchErrors map[string]string `json:"fetchErrors,omitempty"`

	Chapters    []*Chapter     `json:"chapters"`
	Profiles    []*Profile     `json:"profiles"`
	Projects    []*Project     `json:"projects"`
	Tasks       []*Task        `json:"tasks"`
	Events      []*Event       `json:"events"`
	Classifieds []*Classified  `json:"classifieds"`
	Goals       []*ChapterGoal `json:"goals"`
	Tools       []*Tool        `json:"tools"`
	Permissions []Permission   `json:"permissions"`

	chapterByID    map[int64]*Chapter
	profileByID    map[string]*Profile
	projectByID    map[int64]*Project
	taskByID       map[int64]*Task
	classifiedByID map[int64]*Classified
}

// EmptySnapshot is what readers see before the first refresh completes
func EmptySnapshot() *Snapshot {
	s := &Snapshot{}
	s.Index()
	return s
}

// Index builds the id lookups. The hydrator calls it once before publishing.
func (s *Snapshot) Index() {
	s.chapterByID = make(map[int64]*Chapter, len(s.Chapters))
	for _, c := range s.Chapters {
		s.chapterByID[c.ID] = c
	}
	s.profileByID = make(map[string]*Profile, len(s.Profiles))
	for _, p := range s.Profiles {
		s.profileByID[p.ID] = p
	}
	s.projectByID = make(map[int64]*Project, len(s.Projects))
	for _, p := range s.Projects {
		s.projectByID[p.ID] = p
	}
	s.taskByID = make(map[int64]*Task, len(s.Tasks))
	for _, t := range s.Tasks {
		s.taskByID[t.ID] = t
	}
	s.classifiedByID = make(map[int64]*Classified, len(s.Classifieds))
	for _, c := range s.Classifieds {
		s.classifiedByID[c.ID] = c
	}
}

// Chapter looks up a chapter; nil when absent
func (s *Snapshot) Chapter(id int64) *Chapter { return s.chapterByID[id] }

// Profile looks up a profile; nil when absent
func (s *Snapshot) Profile(id string) *Profile { return s.profileByID[id] }

// Project looks up a project; nil when absent
func (s *Snapshot) Project(id int64) *Project { return s.projectByID[id] }

// Task looks up a task; nil when absent
func (s *Snapshot) Task(id int64) *Task { return s.taskByID[id] }

// Classified looks up a classified; nil when absent
func (s *Snapshot) Classified(id int64) *Classified { return s.classifiedByID[id] }
