package web

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"prizedraw/application"
	"prizedraw/domain/entities"
	"prizedraw/domain/interfaces"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const exportLimit = 10000

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}
	token, role, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		log.WithField("username", req.Username).Warn("Login rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  req.Username,
		"role":  role,
	})
}

type tierDTO struct {
	Key       entities.TierKey `json:"key"`
	Name      string           `json:"name"`
	Total     int64            `json:"total"`
	Remaining int64            `json:"remaining"`
}

func toTierDTOs(tiers []*entities.PrizeTier) []tierDTO {
	out := make([]tierDTO, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, tierDTO{Key: t.Key, Name: t.Name, Total: t.Total, Remaining: t.Remaining})
	}
	return out
}

type stateResponse struct {
	Started       bool                   `json:"started"`
	StartAt       *time.Time             `json:"startAt"`
	Tiers         []tierDTO              `json:"tiers"`
	Window        entities.WindowInfo    `json:"window"`
	Probabilities entities.Probabilities `json:"probabilities"`
	IssuedHigher  int64                  `json:"issuedHigher"`
	IssuedAll     int64                  `json:"issuedAll"`
}

// stateSnapshot builds the public state view. It backs both GET /api/state
// and the snapshot pushed to a websocket client on connect.
func (s *Server) stateSnapshot(ctx context.Context) (any, error) {
	var resp *stateResponse
	err := s.withUnitOfWork(ctx, func(uow application.UnitOfWork) error {
		metrics, err := s.adminService(uow).Metrics(ctx)
		if err != nil {
			return err
		}
		resp = &stateResponse{
			Started:       metrics.Config.Started(),
			StartAt:       metrics.Config.StartAt,
			Tiers:         toTierDTOs(metrics.Tiers),
			Window:        metrics.Window,
			Probabilities: metrics.Probabilities,
			IssuedHigher:  metrics.IssuedHigher,
			IssuedAll:     metrics.IssuedAll,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Server) handleState(c *gin.Context) {
	snapshot, err := s.stateSnapshot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

type startDrawRequest struct {
	ParticipantID   string `json:"participantId"`
	ParticipantName string `json:"name"`
	Count           int    `json:"count"`
}

func (s *Server) handleStartDraw(c *gin.Context) {
	var req startDrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	var result *interfaces.ProposalResult
	err := s.withUnitOfWork(c.Request.Context(), func(uow application.UnitOfWork) error {
		var err error
		result, err = s.drawService(uow).Propose(c.Request.Context(), req.ParticipantID, req.ParticipantName, req.Count)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sessionId": result.SessionID,
		"options":   result.Options,
	})
}

type confirmChoiceRequest struct {
	SessionID   string `json:"sessionId"`
	ChoiceIndex *int   `json:"choiceIndex"`
	DeviceID    string `json:"deviceId"`
}

func (s *Server) handleConfirmChoice(c *gin.Context) {
	var req confirmChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ChoiceIndex == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId and choiceIndex are required"})
		return
	}
	operator := c.GetString(ctxKeyUsername)

	var result *interfaces.ConfirmResult
	err := s.withUnitOfWork(c.Request.Context(), func(uow application.UnitOfWork) error {
		var err error
		result, err = s.drawService(uow).Confirm(c.Request.Context(), req.SessionID, *req.ChoiceIndex, operator, req.DeviceID)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"drawId": result.DrawID,
		"tier": tierDTO{
			Key:       result.Tier.Key,
			Name:      result.Tier.Name,
			Total:     result.Tier.Total,
			Remaining: result.Tier.Remaining,
		},
	})
}

// redemptionFilterFromQuery parses the shared ledger query parameters.
func redemptionFilterFromQuery(c *gin.Context) (entities.RedemptionFilter, error) {
	var filter entities.RedemptionFilter
	if v := c.Query("participantId"); v != "" {
		filter.ParticipantID = &v
	}
	if v := c.Query("tier"); v != "" {
		key := entities.TierKey(v)
		if !key.Valid() {
			return filter, fmt.Errorf("unknown tier %q", v)
		}
		filter.Tier = &key
	}
	if v := c.Query("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, fmt.Errorf("invalid since timestamp: %w", err)
		}
		filter.Since = &t
	}
	if v := c.Query("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, fmt.Errorf("invalid until timestamp: %w", err)
		}
		filter.Until = &t
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("invalid limit: %w", err)
		}
		filter.Limit = int(n)
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("invalid offset: %w", err)
		}
		filter.Offset = int(n)
	}
	return filter, nil
}

type redemptionDTO struct {
	ID              string           `json:"id"`
	RedeemedAt      time.Time        `json:"redeemedAt"`
	Operator        string           `json:"operator"`
	DeviceID        string           `json:"deviceId"`
	ParticipantID   string           `json:"participantId"`
	ParticipantName string           `json:"participantName"`
	TierKey         entities.TierKey `json:"tierKey"`
	TierName        string           `json:"tierName"`
}

func toRedemptionDTOs(items []*entities.Redemption) []redemptionDTO {
	out := make([]redemptionDTO, 0, len(items))
	for _, r := range items {
		out = append(out, redemptionDTO{
			ID:              r.ID,
			RedeemedAt:      r.RedeemedAt,
			Operator:        r.Operator,
			DeviceID:        r.DeviceID,
			ParticipantID:   r.ParticipantID,
			ParticipantName: r.ParticipantName,
			TierKey:         r.TierKey,
			TierName:        r.TierName,
		})
	}
	return out
}

func (s *Server) handleListDraws(c *gin.Context) {
	filter, err := redemptionFilterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var page *interfaces.RedemptionPage
	err = s.withUnitOfWork(c.Request.Context(), func(uow application.UnitOfWork) error {
		var err error
		page, err = s.adminService(uow).ListRedemptions(c.Request.Context(), filter)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total": page.Total,
		"items": toRedemptionDTOs(page.Items),
	})
}

func (s *Server) handleExportDraws(c *gin.Context) {
	filter, err := redemptionFilterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	filter.Limit = exportLimit
	filter.Offset = 0

	var items []*entities.Redemption
	err = s.withUnitOfWork(c.Request.Context(), func(uow application.UnitOfWork) error {
		var err error
		items, _, err = uow.RedemptionRepository().List(c.Request.Context(), filter)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment;filename=draws.csv")

	// BOM so spreadsheet tools pick up UTF-8
	c.Writer.Write([]byte("\xef\xbb\xbf"))

	w := csv.NewWriter(c.Writer)
	if err := w.Write([]string{"id", "redeemed_at", "operator", "device_id", "participant_id", "participant_name", "tier_key", "tier_name"}); err != nil {
		log.WithError(err).Error("Failed to write CSV header")
		return
	}
	for _, r := range items {
		row := []string{
			r.ID,
			r.RedeemedAt.UTC().Format(time.RFC3339),
			r.Operator,
			r.DeviceID,
			r.ParticipantID,
			r.ParticipantName,
			string(r.TierKey),
			r.TierName,
		}
		if err := w.Write(row); err != nil {
			log.WithError(err).Error("Failed to write CSV row")
			return
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		log.WithError(err).Error("Failed to flush CSV")
	}
}

type metricsResponse struct {
	Config        configDTO                  `json:"config"`
	Tiers         []tierDTO                  `json:"tiers"`
	TotalsHigher  int64                      `json:"totalsHigher"`
	IssuedHigher  int64                      `json:"issuedHigher"`
	IssuedAll     int64                      `json:"issuedAll"`
	Window        entities.WindowInfo        `json:"window"`
	Probabilities entities.Probabilities     `json:"probabilities"`
	Diagnostics   entities.PacingDiagnostics `json:"diagnostics"`
}

type configDTO struct {
	StartAt       *time.Time `json:"startAt"`
	DurationMin   int64      `json:"durationMin"`
	ShareW1       float64    `json:"shareW1"`
	ShareW2       float64    `json:"shareW2"`
	ShareW3       float64    `json:"shareW3"`
	Alpha         float64    `json:"alpha"`
	MultiplierMin float64    `json:"multiplierMin"`
	MultiplierMax float64    `json:"multiplierMax"`
	HigherProbMin float64    `json:"higherProbMin"`
	HigherProbMax float64    `json:"higherProbMax"`
	WindowSize    int64      `json:"windowSize"`
	WindowTarget  float64    `json:"windowTarget"`
}

func toConfigDTO(cfg *entities.PacingConfig) configDTO {
	return configDTO{
		StartAt:       cfg.StartAt,
		DurationMin:   cfg.DurationMin,
		ShareW1:       cfg.ShareW1,
		ShareW2:       cfg.ShareW2,
		ShareW3:       cfg.ShareW3,
		Alpha:         cfg.Alpha,
		MultiplierMin: cfg.MultiplierMin,
		MultiplierMax: cfg.MultiplierMax,
		HigherProbMin: cfg.HigherProbMin,
		HigherProbMax: cfg.HigherProbMax,
		WindowSize:    cfg.WindowSize,
		WindowTarget:  cfg.WindowTarget,
	}
}

func (s *Server) handleMetrics(c *gin.Context) {
	var metrics *interfaces.AdminMetrics
	err := s.withUnitOfWork(c.Request.Context(), func(uow application.UnitOfWork) error {
		var err error
		metrics, err = s.adminService(uow).Metrics(c.Request.Context())
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, metricsResponse{
		Config:        toConfigDTO(metrics.Config),
		Tiers:         toTierDTOs(metrics.Tiers),
		TotalsHigher:  metrics.TotalsHigher,
		IssuedHigher:  metrics.IssuedHigher,
		IssuedAll:     metrics.IssuedAll,
		Window:        metrics.Window,
		Probabilities: metrics.Probabilities,
		Diagnostics:   metrics.Diagnostics,
	})
}

// updateConfigRequest is a partial update. startAt distinguishes three
// cases: absent (keep), null (clear), or an RFC3339 timestamp / "now".
type updateConfigRequest struct {
	StartAt       json.RawMessage `json:"startAt"`
	DurationMin   *int64          `json:"durationMin"`
	ShareW1       *float64        `json:"shareW1"`
	ShareW2       *float64        `json:"shareW2"`
	ShareW3       *float64        `json:"shareW3"`
	Alpha         *float64        `json:"alpha"`
	MultiplierMin *float64        `json:"multiplierMin"`
	MultiplierMax *float64        `json:"multiplierMax"`
	HigherProbMin *float64        `json:"higherProbMin"`
	HigherProbMax *float64        `json:"higherProbMax"`
	WindowSize    *int64          `json:"windowSize"`
	WindowTarget  *float64        `json:"windowTarget"`
}

func (s *Server) parseStartAt(raw json.RawMessage) (set bool, at *time.Time, err error) {
	if len(raw) == 0 {
		return false, nil, nil
	}
	if string(raw) == "null" {
		return true, nil, nil
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return false, nil, fmt.Errorf("startAt must be null, \"now\" or an RFC3339 timestamp")
	}
	if str == "now" {
		now := s.clock.Now()
		return true, &now, nil
	}
	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return false, nil, fmt.Errorf("invalid startAt timestamp: %w", err)
	}
	return true, &t, nil
}

func (s *Server) handleUpdateConfig(c *gin.Context) {
	var req updateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}
	setStart, startAt, err := s.parseStartAt(req.StartAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	update := entities.PacingConfigUpdate{
		SetStart:      setStart,
		StartAt:       startAt,
		DurationMin:   req.DurationMin,
		ShareW1:       req.ShareW1,
		ShareW2:       req.ShareW2,
		ShareW3:       req.ShareW3,
		Alpha:         req.Alpha,
		MultiplierMin: req.MultiplierMin,
		MultiplierMax: req.MultiplierMax,
		HigherProbMin: req.HigherProbMin,
		HigherProbMax: req.HigherProbMax,
		WindowSize:    req.WindowSize,
		WindowTarget:  req.WindowTarget,
	}

	var cfg *entities.PacingConfig
	err = s.withUnitOfWork(c.Request.Context(), func(uow application.UnitOfWork) error {
		var err error
		cfg, err = s.adminService(uow).UpdateConfig(c.Request.Context(), update)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": toConfigDTO(cfg)})
}

type setTotalsRequest struct {
	Totals map[entities.TierKey]int64 `json:"totals" binding:"required"`
}

func (s *Server) handleSetTotals(c *gin.Context) {
	var req setTotalsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Totals) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "totals map is required"})
		return
	}

	var tiers []*entities.PrizeTier
	err := s.withUnitOfWork(c.Request.Context(), func(uow application.UnitOfWork) error {
		var err error
		tiers, err = s.adminService(uow).SetTierCapacities(c.Request.Context(), req.Totals)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tiers": toTierDTOs(tiers)})
}

func (s *Server) handleReset(c *gin.Context) {
	var tiers []*entities.PrizeTier
	err := s.withUnitOfWork(c.Request.Context(), func(uow application.UnitOfWork) error {
		var err error
		tiers, err = s.adminService(uow).ResetAll(c.Request.Context())
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tiers": toTierDTOs(tiers)})
}
