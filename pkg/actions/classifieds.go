package actions

import (
	"context"
	"fmt"

	"ramo-hub-backend/pkg/database"
	"ramo-hub-backend/pkg/models"
	"ramo-hub-backend/pkg/validation"
)

// NewClassified is the input of CreateClassified
type NewClassified struct {
	Type        string  `json:"type" validate:"required,oneof=help idea"`
	Title       string  `json:"title" validate:"notblank,max=200"`
	Description string  `json:"description" validate:"max=5000"`
	ImageURL    string  `json:"imageUrl" validate:"httpurl"`
	TaskID      *int64  `json:"taskId"`
	ChapterIDs  []int64 `json:"chapterIds"`
}

// Offer is the input of AddClassifiedOffer
type Offer struct {
	Message string `json:"message" validate:"notblank,max=2000"`
}

// CreateClassified posts a classified with the caller as responsible
func (a *Actions) CreateClassified(ctx context.Context, actorID string, in NewClassified) (int64, error) {
	snap, actor := a.actor(actorID)
	if actor == nil {
		return 0, denied("Faça login com um perfil cadastrado para publicar no mural.")
	}
	if err := validation.Struct(in); err != nil {
		return 0, err
	}
	if in.TaskID != nil && snap.Task(*in.TaskID) == nil {
		return 0, validation.NewError("taskId", "unknown task")
	}
	chapterIDs := make([]int64, 0, len(in.ChapterIDs))
	for i, id := range in.ChapterIDs {
		if snap.Chapter(id) == nil {
			return 0, validation.NewError(fmt.Sprintf("chapterIds[%d]", i), "unknown chapter")
		}
		chapterIDs = append(chapterIDs, id)
	}

	values := database.Values{
		"type":           in.Type,
		"title":          in.Title,
		"description":    in.Description,
		"image_url":      in.ImageURL,
		"chapter_ids":    chapterIDs,
		"responsible_id": actor.ID,
		"created_at":     a.now().UTC(),
	}
	if in.TaskID != nil {
		values["task_id"] = *in.TaskID
	}
	return a.insert(ctx, "createClassified", database.TableClassifieds, values)
}

// AddClassifiedOffer appends a signed, timestamped line to a classified's
// offers with the store's atomic append procedure
func (a *Actions) AddClassifiedOffer(ctx context.Context, actorID string, classifiedID int64, in Offer) error {
	snap, actor := a.actor(actorID)
	if actor == nil {
		return denied("Faça login com um perfil cadastrado para oferecer ajuda.")
	}
	if snap.Classified(classifiedID) == nil {
		return fmt.Errorf("classified %d: %w", classifiedID, database.ErrNotFound)
	}
	if err := validation.Struct(in); err != nil {
		return err
	}

	line := models.FormatOffer(actor.FullName, in.Message, a.now())
	return a.write(ctx, "addClassifiedOffer", func(ctx context.Context) error {
		return a.store.AppendClassifiedOffer(ctx, classifiedID, line)
	})
}
