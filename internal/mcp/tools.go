package mcp

import (
	"context"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"editstate/internal/query"
	"editstate/internal/selectors"
	"editstate/internal/state"
)

type RecordRef struct {
	Kind string `json:"kind" jsonschema:"entity kind, e.g. postType"`
	Name string `json:"name" jsonschema:"entity name, e.g. page"`
	Key  string `json:"key" jsonschema:"record primary key"`
}

type GetRecordInput struct {
	Kind    string   `json:"kind" jsonschema:"entity kind"`
	Name    string   `json:"name" jsonschema:"entity name"`
	Key     string   `json:"key" jsonschema:"record primary key"`
	Fields  []string `json:"fields,omitempty" jsonschema:"only return these fields"`
	Context string   `json:"context,omitempty" jsonschema:"view context, default when empty"`
}

type ListRecordsInput struct {
	Kind    string            `json:"kind" jsonschema:"entity kind"`
	Name    string            `json:"name" jsonschema:"entity name"`
	Page    int               `json:"page,omitempty" jsonschema:"1-based page"`
	PerPage int               `json:"per_page,omitempty" jsonschema:"page size, -1 for all"`
	Params  map[string]string `json:"params,omitempty" jsonschema:"field filters plus orderby and order"`
	Fields  []string          `json:"fields,omitempty" jsonschema:"only return these fields"`
	Include []string          `json:"include,omitempty" jsonschema:"only these keys"`
	Context string            `json:"context,omitempty" jsonschema:"view context"`
}

type EditRecordInput struct {
	Kind  string         `json:"kind" jsonschema:"entity kind"`
	Name  string         `json:"name" jsonschema:"entity name"`
	Key   string         `json:"key" jsonschema:"record primary key"`
	Edits map[string]any `json:"edits" jsonschema:"field values to merge into the pending edits"`
}

type SaveRecordInput struct {
	Kind     string `json:"kind" jsonschema:"entity kind"`
	Name     string `json:"name" jsonschema:"entity name"`
	Key      string `json:"key" jsonschema:"record primary key"`
	Autosave bool   `json:"autosave,omitempty" jsonschema:"mark the save as an autosave"`
}

type EmptyInput struct{}

type RecordOutput struct {
	Presence string         `json:"presence"`
	Record   map[string]any `json:"record,omitempty"`
}

type EditedRecordOutput struct {
	Record   map[string]any `json:"record"`
	Edits    map[string]any `json:"edits,omitempty"`
	HasEdits bool           `json:"has_edits"`
	CanEdit  string         `json:"can_edit"`
}

type ListRecordsOutput struct {
	Presence string           `json:"presence"`
	Records  []map[string]any `json:"records"`
}

type DirtyRecordOutput struct {
	Kind  string `json:"kind"`
	Name  string `json:"name"`
	Key   string `json:"key"`
	Title string `json:"title"`
}

type ListDirtyOutput struct {
	Dirty  []DirtyRecordOutput `json:"dirty"`
	Saving []DirtyRecordOutput `json:"saving"`
}

type TransitionOutput struct {
	Kind string         `json:"kind"`
	Name string         `json:"name"`
	Key  string         `json:"key"`
	From map[string]any `json:"from"`
	To   map[string]any `json:"to"`
}

type HistoryOutput struct {
	Changed bool              `json:"changed"`
	HasUndo bool              `json:"has_undo"`
	HasRedo bool              `json:"has_redo"`
	Undo    *TransitionOutput `json:"undo,omitempty"`
	Redo    *TransitionOutput `json:"redo,omitempty"`
}

type SaveRecordOutput struct {
	Record map[string]any `json:"record"`
}

type StatusOutput struct {
	OK bool `json:"ok"`
}

type EntityOutput struct {
	Kind           string   `json:"kind"`
	Name           string   `json:"name"`
	Label          string   `json:"label,omitempty"`
	Key            string   `json:"key"`
	TransientEdits []string `json:"transient_edits,omitempty"`
	RawAttributes  []string `json:"raw_attributes,omitempty"`
}

type GetEntitiesOutput struct {
	Entities []EntityOutput `json:"entities"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_entities",
		Description: "List the configured entities",
	}, s.handleGetEntities)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_record",
		Description: "Fetch one stored record",
	}, s.handleGetRecord)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_edited_record",
		Description: "Return a record with its pending edits applied",
	}, s.handleGetEditedRecord)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_records",
		Description: "Fetch a page of records",
	}, s.handleListRecords)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "edit_record",
		Description: "Merge field edits into a record's pending edits",
	}, s.handleEditRecord)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "discard_edits",
		Description: "Drop every pending edit of a record",
	}, s.handleDiscardEdits)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "save_record",
		Description: "Persist a record's pending edits",
	}, s.handleSaveRecord)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "delete_record",
		Description: "Delete a stored record",
	}, s.handleDeleteRecord)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_dirty",
		Description: "List records with unsaved edits and saves in flight",
	}, s.handleListDirty)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "undo",
		Description: "Revert the last edit",
	}, s.handleUndo)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "redo",
		Description: "Re-apply the last undone edit",
	}, s.handleRedo)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "history_status",
		Description: "Report the undo and redo entries",
	}, s.handleHistoryStatus)
}

func (s *Server) handleGetEntities(ctx context.Context, req *sdk.CallToolRequest, input EmptyInput) (*sdk.CallToolResult, GetEntitiesOutput, error) {
	registry := s.session.Registry()
	output := make([]EntityOutput, 0, len(registry.Entities))
	for _, entity := range registry.Entities {
		output = append(output, EntityOutput{
			Kind:           entity.Kind,
			Name:           entity.Name,
			Label:          entity.Label,
			Key:            entity.KeyField(),
			TransientEdits: entity.TransientEdits,
			RawAttributes:  entity.RawAttributes,
		})
	}
	return nil, GetEntitiesOutput{Entities: output}, nil
}

func (s *Server) handleGetRecord(ctx context.Context, req *sdk.CallToolRequest, input GetRecordInput) (*sdk.CallToolResult, RecordOutput, error) {
	if err := validateRef(input.Kind, input.Name, input.Key); err != nil {
		return nil, RecordOutput{}, err
	}
	q := query.Query{Context: input.Context, Fields: input.Fields}
	record, presence, err := s.session.FetchRecord(ctx, input.Kind, input.Name, state.Key(input.Key), q)
	if err != nil {
		return nil, RecordOutput{}, err
	}
	return nil, RecordOutput{Presence: presence.String(), Record: record}, nil
}

func (s *Server) handleGetEditedRecord(ctx context.Context, req *sdk.CallToolRequest, input RecordRef) (*sdk.CallToolResult, EditedRecordOutput, error) {
	if err := validateRef(input.Kind, input.Name, input.Key); err != nil {
		return nil, EditedRecordOutput{}, err
	}
	cfg, err := s.session.Entity(input.Kind, input.Name)
	if err != nil {
		return nil, EditedRecordOutput{}, err
	}
	key := state.Key(input.Key)
	if _, _, err := s.session.FetchRecord(ctx, cfg.Kind, cfg.Name, key, query.Query{}); err != nil {
		return nil, EditedRecordOutput{}, err
	}

	st := s.session.Snapshot()
	sel := s.session.Selectors()
	allowed, presence := sel.CanUserEditEntityRecord(st, cfg.Kind, cfg.Name, key)
	return nil, EditedRecordOutput{
		Record:   sel.GetEditedEntityRecord(st, cfg.Kind, cfg.Name, key),
		Edits:    sel.GetEntityRecordEdits(st, cfg.Kind, cfg.Name, key),
		HasEdits: sel.HasEditsForEntityRecord(st, cfg.Kind, cfg.Name, key),
		CanEdit:  permissionLabel(allowed, presence),
	}, nil
}

func (s *Server) handleListRecords(ctx context.Context, req *sdk.CallToolRequest, input ListRecordsInput) (*sdk.CallToolResult, ListRecordsOutput, error) {
	if input.Kind == "" || input.Name == "" {
		return nil, ListRecordsOutput{}, fmt.Errorf("kind and name are required")
	}
	q := query.Query{
		Context: input.Context,
		Fields:  input.Fields,
		Page:    input.Page,
		PerPage: input.PerPage,
		Params:  input.Params,
	}
	for _, key := range input.Include {
		q.Include = append(q.Include, state.Key(key))
	}
	records, presence, err := s.session.FetchRecords(ctx, input.Kind, input.Name, q)
	if err != nil {
		return nil, ListRecordsOutput{}, err
	}
	output := make([]map[string]any, 0, len(records))
	for _, record := range records {
		output = append(output, record)
	}
	return nil, ListRecordsOutput{Presence: presence.String(), Records: output}, nil
}

func (s *Server) handleEditRecord(ctx context.Context, req *sdk.CallToolRequest, input EditRecordInput) (*sdk.CallToolResult, EditedRecordOutput, error) {
	if err := validateRef(input.Kind, input.Name, input.Key); err != nil {
		return nil, EditedRecordOutput{}, err
	}
	if len(input.Edits) == 0 {
		return nil, EditedRecordOutput{}, fmt.Errorf("edits are required")
	}
	key := state.Key(input.Key)
	// Load first so the undo step records the stored values.
	if _, _, err := s.session.FetchRecord(ctx, input.Kind, input.Name, key, query.Query{}); err != nil {
		return nil, EditedRecordOutput{}, err
	}
	if err := s.session.Edit(input.Kind, input.Name, key, input.Edits); err != nil {
		return nil, EditedRecordOutput{}, err
	}
	return s.handleGetEditedRecord(ctx, req, RecordRef{Kind: input.Kind, Name: input.Name, Key: input.Key})
}

func (s *Server) handleDiscardEdits(ctx context.Context, req *sdk.CallToolRequest, input RecordRef) (*sdk.CallToolResult, StatusOutput, error) {
	if err := validateRef(input.Kind, input.Name, input.Key); err != nil {
		return nil, StatusOutput{}, err
	}
	if err := s.session.Discard(input.Kind, input.Name, state.Key(input.Key)); err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{OK: true}, nil
}

func (s *Server) handleSaveRecord(ctx context.Context, req *sdk.CallToolRequest, input SaveRecordInput) (*sdk.CallToolResult, SaveRecordOutput, error) {
	if err := validateRef(input.Kind, input.Name, input.Key); err != nil {
		return nil, SaveRecordOutput{}, err
	}
	record, err := s.session.Save(ctx, input.Kind, input.Name, state.Key(input.Key), input.Autosave)
	if err != nil {
		return nil, SaveRecordOutput{}, err
	}
	return nil, SaveRecordOutput{Record: record}, nil
}

func (s *Server) handleDeleteRecord(ctx context.Context, req *sdk.CallToolRequest, input RecordRef) (*sdk.CallToolResult, StatusOutput, error) {
	if err := validateRef(input.Kind, input.Name, input.Key); err != nil {
		return nil, StatusOutput{}, err
	}
	if err := s.session.Delete(ctx, input.Kind, input.Name, state.Key(input.Key)); err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{OK: true}, nil
}

func (s *Server) handleListDirty(ctx context.Context, req *sdk.CallToolRequest, input EmptyInput) (*sdk.CallToolResult, ListDirtyOutput, error) {
	st := s.session.Snapshot()
	sel := s.session.Selectors()
	return nil, ListDirtyOutput{
		Dirty:  dirtyOutput(sel.GetDirtyEntityRecords(st)),
		Saving: dirtyOutput(sel.GetEntitiesBeingSaved(st)),
	}, nil
}

func (s *Server) handleUndo(ctx context.Context, req *sdk.CallToolRequest, input EmptyInput) (*sdk.CallToolResult, HistoryOutput, error) {
	changed := s.session.Undo()
	output := s.history()
	output.Changed = changed
	return nil, output, nil
}

func (s *Server) handleRedo(ctx context.Context, req *sdk.CallToolRequest, input EmptyInput) (*sdk.CallToolResult, HistoryOutput, error) {
	changed := s.session.Redo()
	output := s.history()
	output.Changed = changed
	return nil, output, nil
}

func (s *Server) handleHistoryStatus(ctx context.Context, req *sdk.CallToolRequest, input EmptyInput) (*sdk.CallToolResult, HistoryOutput, error) {
	return nil, s.history(), nil
}

func (s *Server) history() HistoryOutput {
	st := s.session.Snapshot()
	sel := s.session.Selectors()
	output := HistoryOutput{
		HasUndo: sel.HasUndo(st),
		HasRedo: sel.HasRedo(st),
	}
	if t, ok := sel.GetUndoEdit(st); ok {
		output.Undo = &TransitionOutput{Kind: t.Kind, Name: t.Name, Key: t.Key, From: t.From, To: t.To}
	}
	if t, ok := sel.GetRedoEdit(st); ok {
		output.Redo = &TransitionOutput{Kind: t.Kind, Name: t.Name, Key: t.Key, From: t.From, To: t.To}
	}
	return output
}

func validateRef(kind, name, key string) error {
	if kind == "" || name == "" || key == "" {
		return fmt.Errorf("kind, name and key are required")
	}
	return nil
}

func dirtyOutput(records []selectors.DirtyRecord) []DirtyRecordOutput {
	output := make([]DirtyRecordOutput, 0, len(records))
	for _, record := range records {
		output = append(output, DirtyRecordOutput{
			Kind:  record.Kind,
			Name:  record.Name,
			Key:   string(record.Key),
			Title: record.Title,
		})
	}
	return output
}

// permissionLabel reports "yes", "no" or the presence when the capability is
// not known.
func permissionLabel(allowed bool, presence state.Presence) string {
	if presence != state.Loaded {
		return presence.String()
	}
	if allowed {
		return "yes"
	}
	return "no"
}
