package fs

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"dirserve/metrics"
	"dirserve/service/i18n"
	"dirserve/service/listing"
	ws "dirserve/websocket"
)

const (
	actionList      = "list"
	actionLanguages = "languages"
)

var errInternal = errors.New("internal error")

// backendError marks failures the resolver could not classify.
func backendError(err error) error {
	if listing.ErrorKind(err) == listing.KindInternal {
		return fmt.Errorf("%w: %w", errInternal, err)
	}
	return err
}

type listData struct {
	// req
	Dir  string `json:"dir"`
	Lang string `json:"lang,omitempty"`
	// res
	Entries []listing.Entry `json:"entries,omitempty"`
}

type languagesData struct {
	Languages []string `json:"languages"`
}

// FSService answers listing requests over a websocket session with the
// same entries the HTML index renders.
type FSService struct {
	conn ws.JSONWriter

	resolver     *listing.Resolver
	translations *i18n.Loader
	defaultLang  string
	logger       *zap.Logger
}

func NewService(resolver *listing.Resolver, translations *i18n.Loader, defaultLang string, logger *zap.Logger) *FSService {
	return &FSService{
		resolver:     resolver,
		translations: translations,
		defaultLang:  defaultLang,
		logger:       logger.Named("fs"),
	}
}

// Register implements ws.Service.
func (s *FSService) Register(conn ws.JSONWriter) {
	s.conn = conn
}

func (s *FSService) Name() string {
	return "fs"
}

func (s *FSService) HandleTextMessage(id, action string, data json.RawMessage) {
	switch action {
	case actionList:
		go s.handleList(id, data)
	case actionLanguages:
		go s.handleLanguages(id)
	default:
		s.handleError(id, action, errors.New("unknown action"))
	}
}

func (s *FSService) Cleanup(err error) {}

func (s *FSService) handleList(id string, data json.RawMessage) {
	var d listData
	if len(data) > 0 {
		if err := json.Unmarshal(data, &d); err != nil {
			s.handleError(id, actionList, err)
			return
		}
	}
	if d.Lang == "" {
		d.Lang = s.defaultLang
	}

	translations, err := s.translations.Load(d.Lang)
	if err != nil {
		s.handleError(id, actionList, err)
		return
	}

	dir, err := s.resolver.Resolve(d.Dir, listing.Directory)
	if err != nil {
		metrics.RecordResolveFailure(listing.ErrorKind(err))
		s.handleError(id, actionList, backendError(err))
		return
	}

	entries, err := s.resolver.Enumerate(dir, listing.View{
		Lang:        d.Lang,
		ParentLabel: translations.Get("Parent_Directory"),
	})
	if err != nil {
		s.handleError(id, actionList, backendError(err))
		return
	}
	metrics.RecordListing(d.Lang, len(entries))

	s.reply(id, actionList, &listData{Dir: dir.Rel, Lang: d.Lang, Entries: entries})
}

func (s *FSService) handleLanguages(id string) {
	s.reply(id, actionLanguages, &languagesData{Languages: s.translations.Languages()})
}

func (s *FSService) reply(id, action string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		s.handleError(id, action, err)
		return
	}
	s.conn.WriteJSON(&ws.ServiceMessage{
		Service: s.Name(),
		Id:      id,
		Action:  action,
		Data:    payload,
	})
}

// handleError reports err to the client. Backend failures are logged and
// answered with a generic message, since their text may name host paths.
func (s *FSService) handleError(id, action string, err error) {
	message := err.Error()
	if errors.Is(err, errInternal) {
		s.logger.Error("request failed", zap.String("action", action), zap.Error(err))
		message = errInternal.Error()
	} else {
		s.logger.Debug("request failed", zap.String("action", action), zap.Error(err))
	}
	s.conn.WriteJSON(&ws.ServiceMessage{
		Service: s.Name(),
		Id:      id,
		Action:  action,
		Error:   message,
	})
}
