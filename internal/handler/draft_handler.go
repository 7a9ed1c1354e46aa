package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/blockcms/internal/component"
	"github.com/blockcms/internal/db"
	"github.com/blockcms/internal/editor"
	"github.com/blockcms/internal/service"
	"github.com/blockcms/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type selectionView struct {
	Kind    string `json:"kind"`
	BlockID string `json:"blockId"`
	Pointer string `json:"pointer"`
}

type saveView struct {
	State   string `json:"state"`
	Outcome string `json:"outcome,omitempty"`
	Message string `json:"message,omitempty"`
}

type draftView struct {
	ID      string            `json:"id"`
	PageID  uint              `json:"pageId"`
	Blocks  []component.Block `json:"blocks"`
	Pending *selectionView    `json:"pending,omitempty"`
	Save    saveView          `json:"save"`
}

func viewDraft(draft *editor.Session) draftView {
	view := draftView{
		ID:     draft.ID(),
		PageID: draft.PageID(),
		Blocks: draft.Blocks(),
	}
	if target := draft.Pending(); target.Pending() {
		view.Pending = &selectionView{
			Kind:    target.Kind.String(),
			BlockID: target.BlockID,
			Pointer: target.FieldPath().Pointer(),
		}
	}
	state, outcome, message := draft.SaveState()
	view.Save = saveView{State: string(state), Outcome: string(outcome), Message: message}
	return view
}

type openDraftPayload struct {
	PageID uint `json:"page_id"`
}

type addBlockPayload struct {
	Type string `json:"type"`
}

type moveBlockPayload struct {
	Direction string `json:"direction"`
}

type fieldPayload struct {
	Pointer string `json:"pointer"`
	Value   any    `json:"value"`
}

type elementPayload struct {
	Pointer string `json:"pointer"`
}

type moveElementPayload struct {
	Pointer string `json:"pointer"`
	From    int    `json:"from"`
	To      int    `json:"to"`
}

type selectionPayload struct {
	BlockID  string `json:"block_id"`
	Kind     string `json:"kind"`
	Pointer  string `json:"pointer"`
	Index    int    `json:"index"`
	FieldKey string `json:"field_key"`
}

type applySelectionPayload struct {
	URL     string `json:"url"`
	MediaID uint   `json:"media_id"`
}

// OpenDraft 打开编辑草稿：page_id 为 0 时从空白页面开始。
func (a *API) OpenDraft(c *gin.Context) {
	var payload openDraftPayload
	if c.Request.ContentLength != 0 && !bindJSON(c, &payload, "invalid request body") {
		return
	}

	var blocks []component.Block
	if payload.PageID != 0 {
		page, err := a.pages.Get(payload.PageID)
		if err != nil {
			a.respondPageError(c, err, "failed to load page")
			return
		}
		blocks = page.Content
	}

	draft := a.drafts.Open(payload.PageID, a.catalog, blocks)
	c.JSON(http.StatusOK, gin.H{"draft": viewDraft(draft)})
}

// GetDraft 返回草稿内容块、待选媒体目标和保存状态
func (a *API) GetDraft(c *gin.Context) {
	draft, ok := a.draft(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": viewDraft(draft)})
}

// DiscardDraft 丢弃草稿，不保存
func (a *API) DiscardDraft(c *gin.Context) {
	a.drafts.Discard(c.Param("draft"))
	c.JSON(http.StatusOK, gin.H{"message": "draft discarded"})
}

// AddBlock 以组件默认数据追加内容块
func (a *API) AddBlock(c *gin.Context) {
	draft, ok := a.draft(c)
	if !ok {
		return
	}
	var payload addBlockPayload
	if !bindJSON(c, &payload, "invalid request body") {
		return
	}

	block, err := draft.AddBlock(strings.TrimSpace(payload.Type))
	if err != nil {
		a.respondEditorError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"block": block, "draft": viewDraft(draft)})
}

// RemoveBlock 从草稿中删除内容块
func (a *API) RemoveBlock(c *gin.Context) {
	draft, ok := a.draft(c)
	if !ok {
		return
	}
	if err := draft.RemoveBlock(c.Param("block")); err != nil {
		a.respondEditorError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": viewDraft(draft)})
}

// MoveBlock 将内容块上移或下移一位，越界时不做处理
func (a *API) MoveBlock(c *gin.Context) {
	draft, ok := a.draft(c)
	if !ok {
		return
	}
	var payload moveBlockPayload
	if !bindJSON(c, &payload, "invalid request body") {
		return
	}

	var delta int
	switch strings.ToLower(strings.TrimSpace(payload.Direction)) {
	case "up":
		delta = -1
	case "down":
		delta = 1
	default:
		respondError(c, http.StatusBadRequest, "direction must be up or down")
		return
	}

	moved, err := draft.MoveBlock(c.Param("block"), delta)
	if err != nil {
		a.respondEditorError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"moved": moved, "draft": viewDraft(draft)})
}

// SetField 按 JSON pointer 写入内容块字段
func (a *API) SetField(c *gin.Context) {
	draft, ok := a.draft(c)
	if !ok {
		return
	}
	var payload fieldPayload
	if !bindJSON(c, &payload, "invalid request body") {
		return
	}

	block, err := draft.Edit(c.Param("block"), func(def component.Definition, data map[string]any) (map[string]any, error) {
		path, err := editor.ParsePointer(def, payload.Pointer)
		if err != nil {
			return nil, err
		}
		return editor.SetValue(def, data, path, payload.Value)
	})
	if err != nil {
		a.respondEditorError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"block": block})
}

// AddElement 向数组字段追加空元素，达到上限时不追加
func (a *API) AddElement(c *gin.Context) {
	draft, ok := a.draft(c)
	if !ok {
		return
	}
	var payload elementPayload
	if !bindJSON(c, &payload, "invalid request body") {
		return
	}

	var added bool
	block, err := draft.Edit(c.Param("block"), func(def component.Definition, data map[string]any) (map[string]any, error) {
		path, err := editor.ParsePointer(def, payload.Pointer)
		if err != nil {
			return nil, err
		}
		updated, ok, err := editor.AddElement(def, data, path)
		added = ok
		return updated, err
	})
	if err != nil {
		a.respondEditorError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added, "block": block})
}

// RemoveElement 删除 ?pointer= 数组中第 ?index= 个元素
func (a *API) RemoveElement(c *gin.Context) {
	draft, ok := a.draft(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Query("index"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid element index")
		return
	}
	pointer := c.Query("pointer")

	block, err := draft.RemoveElement(c.Param("block"), pointer, index)
	if err != nil {
		a.respondEditorError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"block": block})
}

// MoveElement 调整数组元素顺序
func (a *API) MoveElement(c *gin.Context) {
	draft, ok := a.draft(c)
	if !ok {
		return
	}
	var payload moveElementPayload
	if !bindJSON(c, &payload, "invalid request body") {
		return
	}

	block, err := draft.MoveElement(c.Param("block"), payload.Pointer, payload.From, payload.To)
	if err != nil {
		a.respondEditorError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"block": block})
}

// SetSelection 记录下一次选择媒体时要填充的图片字段
func (a *API) SetSelection(c *gin.Context) {
	draft, ok := a.draft(c)
	if !ok {
		return
	}
	var payload selectionPayload
	if !bindJSON(c, &payload, "invalid request body") {
		return
	}

	kind, err := editor.ParseTargetKind(strings.TrimSpace(payload.Kind))
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if kind == editor.TargetNone {
		draft.CancelSelection()
		c.JSON(http.StatusOK, gin.H{"draft": viewDraft(draft)})
		return
	}

	block, found := draft.Block(payload.BlockID)
	if !found {
		a.respondEditorError(c, editor.ErrBlockNotFound)
		return
	}
	def, known := a.catalog.Lookup(block.Type)
	if !known {
		a.respondEditorError(c, editor.ErrUnknownType)
		return
	}
	path, err := editor.ParsePointer(def, payload.Pointer)
	if err != nil {
		a.respondEditorError(c, err)
		return
	}

	target := editor.FieldTarget(block.ID, path)
	if kind == editor.TargetArrayElement {
		target = editor.ArrayElementTarget(block.ID, path, payload.Index, strings.TrimSpace(payload.FieldKey))
	}
	if err := draft.SetPending(target); err != nil {
		a.respondEditorError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": viewDraft(draft)})
}

// CancelSelection 清除待选媒体目标
func (a *API) CancelSelection(c *gin.Context) {
	draft, ok := a.draft(c)
	if !ok {
		return
	}
	draft.CancelSelection()
	c.JSON(http.StatusOK, gin.H{"draft": viewDraft(draft)})
}

// ApplySelection 将选中的媒体 URL 写入待选目标
func (a *API) ApplySelection(c *gin.Context) {
	draft, ok := a.draft(c)
	if !ok {
		return
	}
	var payload applySelectionPayload
	if !bindJSON(c, &payload, "invalid request body") {
		return
	}

	url := strings.TrimSpace(payload.URL)
	if payload.MediaID != 0 {
		asset, err := a.media.Get(payload.MediaID)
		if err != nil {
			a.respondMediaError(c, err, "failed to load media")
			return
		}
		url = asset.FilePath
	}
	if url == "" {
		respondError(c, http.StatusBadRequest, "url or media_id is required")
		return
	}

	block, err := draft.SelectMedia(url)
	if err != nil {
		a.respondEditorError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"block": block})
}

// BlockForm 渲染单个内容块的编辑表单片段
func (a *API) BlockForm(c *gin.Context) {
	draft, ok := a.draft(c)
	if !ok {
		return
	}
	block, found := draft.Block(c.Param("block"))
	if !found {
		c.String(http.StatusNotFound, "block not found")
		return
	}

	var buf bytes.Buffer
	if err := a.form.RenderBlock(&buf, draft.ID(), a.catalog, block, draft.Pending()); err != nil {
		a.logger.Error("render block form failed", zap.String("block_id", block.ID), zap.Error(err))
		c.String(http.StatusInternalServerError, "failed to render form")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// SaveDraft 将草稿写入页面。新页面需要同时提交页面元信息；
// 保存失败时草稿保持不变，可直接重试。
func (a *API) SaveDraft(c *gin.Context) {
	draft, ok := a.draft(c)
	if !ok {
		return
	}
	var payload pagePayload
	if c.Request.ContentLength != 0 && !bindJSON(c, &payload, "invalid request body") {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), a.saveTimeout)
	defer cancel()

	var (
		saved    *db.Page
		warnings []service.BlockIssue
	)
	err := draft.Save(ctx, func(ctx context.Context, blocks []component.Block) error {
		if pageID := draft.PageID(); pageID != 0 {
			page, issues, err := a.pages.SaveContent(ctx, pageID, blocks)
			if err != nil {
				return err
			}
			saved, warnings = page, issues
			return nil
		}

		input := payload.toInput()
		input.Content = blocks
		page, err := a.pages.CreateContext(ctx, input)
		if err != nil {
			return err
		}
		draft.BindPage(page.ID)
		saved, warnings = page, a.pages.Lint(page.Content)
		return nil
	})
	if err != nil {
		if errors.Is(err, editor.ErrSaveInProgress) {
			respondError(c, http.StatusConflict, err.Error())
			return
		}
		a.logger.Warn("save draft failed", zap.String("draft_id", draft.ID()), zap.Error(err))
		a.respondPageError(c, err, "failed to save page")
		return
	}

	if warnings == nil {
		warnings = []service.BlockIssue{}
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "saved",
		"page":     saved,
		"warnings": warnings,
		"draft":    viewDraft(draft),
	})
}

func (a *API) draft(c *gin.Context) (*editor.Session, bool) {
	draft, ok := a.drafts.Get(c.Param("draft"))
	if !ok {
		respondError(c, http.StatusNotFound, "draft not found or expired")
		return nil, false
	}
	return draft, true
}

func (a *API) respondEditorError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, editor.ErrBlockNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, editor.ErrMinReached),
		errors.Is(err, editor.ErrNoSelectionTarget),
		errors.Is(err, editor.ErrSaveInProgress):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, editor.ErrUnknownType),
		errors.Is(err, editor.ErrInvalidPath),
		errors.Is(err, editor.ErrUnknownField),
		errors.Is(err, editor.ErrNotArray),
		errors.Is(err, editor.ErrNotEditable),
		errors.Is(err, editor.ErrIndexOutOfRange):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		a.logger.Error("draft edit failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to edit draft")
	}
}

func (a *API) respondMediaError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrMediaNotFound):
		respondError(c, http.StatusNotFound, "media not found")
	case errors.Is(err, service.ErrMediaEmpty),
		errors.Is(err, storage.ErrUnsupportedMedia):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrMediaTooLarge):
		respondError(c, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, storage.ErrNotConfigured):
		respondError(c, http.StatusServiceUnavailable, err.Error())
	default:
		a.logger.Error(fallback, zap.Error(err))
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
