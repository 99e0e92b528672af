// Package query turns filter selections into validated list queries for the
// condominium service and tracks paginated results.
package query

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/stanstork/condo-notify/internal/apperr"
	"github.com/stanstork/condo-notify/internal/datefmt"
	"github.com/stanstork/condo-notify/internal/models"
)

// PageSize is fixed by the condominium service.
const PageSize = 30

type Mode string

const (
	ModeSingle   Mode = "unico"
	ModeCombined Mode = "combinado"
)

// Dimension is the one filter a single-mode query applies.
type Dimension string

const (
	DimensionStatus Dimension = "status"
	DimensionType   Dimension = "tipo"
	DimensionPeriod Dimension = "periodo"
)

const (
	PeriodLastWeek  = "7"
	PeriodLastMonth = "30"
	PeriodCustom    = "customizado"
)

// Filter holds raw selections as a screen submits them. Dates are DD-MM-YYYY.
type Filter struct {
	Mode      Mode
	Dimension Dimension
	Status    string
	Type      string
	Period    string
	StartDate string
	EndDate   string
	Block     string
	Apartment string
	ShowAll   bool
}

// Query is a validated filter ready to be serialised. Dates are YYYY-MM-DD.
type Query struct {
	Scope     Scope
	ShowAll   bool
	Status    *models.NotificationStatus
	Type      *models.NotificationType
	Period    string
	StartDate string
	EndDate   string
	Block     string
	Apartment string
}

// AllQuery is the "show all" escape hatch: no filter state at all.
func AllQuery(scope Scope) Query {
	return Query{Scope: scope, ShowAll: true}
}

func isPlaceholder(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "selecione":
		return true
	}
	return false
}

// Build validates f against caps. now anchors the period shortcuts. At least
// one usable value must survive, otherwise a FilterValidationError is returned
// and nothing should be sent.
func Build(f Filter, caps Capabilities, now time.Time) (Query, error) {
	if f.ShowAll {
		return AllQuery(caps.Scope), nil
	}

	mode := f.Mode
	if mode == "" {
		mode = ModeCombined
		if f.Dimension != "" {
			mode = ModeSingle
		}
	}

	q := Query{Scope: caps.Scope}
	switch mode {
	case ModeSingle:
		if err := buildSingle(&q, f, caps, now); err != nil {
			return Query{}, err
		}
	case ModeCombined:
		if err := buildCombined(&q, f, caps, now); err != nil {
			return Query{}, err
		}
	default:
		return Query{}, apperr.FilterValidation("Modo de filtro desconhecido: %q", string(f.Mode))
	}
	return q, nil
}

func buildSingle(q *Query, f Filter, caps Capabilities, now time.Time) error {
	var (
		used bool
		err  error
	)
	switch f.Dimension {
	case DimensionStatus:
		used, err = applyStatus(q, f.Status, caps)
	case DimensionType:
		used, err = applyType(q, f.Type, caps)
	case DimensionPeriod:
		used, err = applyPeriod(q, f, now)
	case "":
		return apperr.FilterValidation("Selecione o tipo de filtro")
	default:
		return apperr.FilterValidation("Filtro desconhecido: %q", string(f.Dimension))
	}
	if err != nil {
		return err
	}
	if !used {
		return apperr.FilterValidation("Preencha o valor do filtro selecionado")
	}
	return nil
}

func buildCombined(q *Query, f Filter, caps Capabilities, now time.Time) error {
	usedStatus, err := applyStatus(q, f.Status, caps)
	if err != nil {
		return err
	}
	usedType, err := applyType(q, f.Type, caps)
	if err != nil {
		return err
	}
	usedPeriod, err := applyPeriod(q, f, now)
	if err != nil {
		return err
	}
	usedApartment := false
	if caps.ApartmentFilter {
		if !isPlaceholder(f.Block) {
			q.Block = strings.TrimSpace(f.Block)
			usedApartment = true
		}
		if !isPlaceholder(f.Apartment) {
			q.Apartment = strings.TrimSpace(f.Apartment)
			usedApartment = true
		}
	}
	if !usedStatus && !usedType && !usedPeriod && !usedApartment {
		return apperr.FilterValidation("Selecione pelo menos um filtro")
	}
	return nil
}

func applyStatus(q *Query, raw string, caps Capabilities) (bool, error) {
	if isPlaceholder(raw) {
		return false, nil
	}
	s, err := models.ParseStatus(raw)
	if err != nil {
		return false, apperr.FilterValidation("Status inválido: %q", raw)
	}
	if !caps.AllowsStatus(s) {
		return false, apperr.FilterValidation("O status %q não está disponível nesta lista", s.Label())
	}
	q.Status = &s
	return true, nil
}

func applyType(q *Query, raw string, caps Capabilities) (bool, error) {
	if isPlaceholder(raw) {
		return false, nil
	}
	t, err := models.ParseType(raw)
	if err != nil {
		return false, apperr.FilterValidation("Tipo inválido: %q", raw)
	}
	if !caps.AllowsType(t) {
		return false, apperr.FilterValidation("O tipo %q não está disponível nesta lista", t.Label())
	}
	q.Type = &t
	return true, nil
}

func applyPeriod(q *Query, f Filter, now time.Time) (bool, error) {
	period := strings.ToLower(strings.TrimSpace(f.Period))
	if isPlaceholder(period) {
		return false, nil
	}
	switch period {
	case PeriodLastWeek, PeriodLastMonth:
		days, _ := strconv.Atoi(period)
		q.Period = period
		q.StartDate = datefmt.Wire(now.AddDate(0, 0, -days))
		q.EndDate = datefmt.Wire(now)
		return true, nil
	case PeriodCustom:
		start := strings.TrimSpace(f.StartDate)
		end := strings.TrimSpace(f.EndDate)
		if start == "" && end == "" {
			return false, nil
		}
		var startAt, endAt time.Time
		if start != "" {
			t, err := datefmt.ParseLocal(start)
			if err != nil {
				return false, apperr.FilterValidation("Data inicial inválida: use DD-MM-AAAA")
			}
			startAt = t
			q.StartDate = datefmt.Wire(t)
		}
		if end != "" {
			t, err := datefmt.ParseLocal(end)
			if err != nil {
				return false, apperr.FilterValidation("Data final inválida: use DD-MM-AAAA")
			}
			endAt = t
			q.EndDate = datefmt.Wire(t)
		}
		if !startAt.IsZero() && !endAt.IsZero() && startAt.After(endAt) {
			return false, apperr.FilterValidation("A data inicial deve ser anterior à data final")
		}
		q.Period = PeriodCustom
		return true, nil
	}
	return false, apperr.FilterValidation("Período inválido: %q", f.Period)
}

// Filtered reports whether q goes to the filtered search endpoint.
func (q Query) Filtered() bool {
	return !q.ShowAll
}

// Values serialises q for the given page.
func (q Query) Values(page int, createdByStaff bool) url.Values {
	if page < 1 {
		page = 1
	}
	v := url.Values{}
	v.Set("page", strconv.Itoa(page))
	v.Set("pageSize", strconv.Itoa(PageSize))
	v.Set("criadoPorSindico", strconv.FormatBool(createdByStaff))
	if q.ShowAll {
		return v
	}
	if q.Status != nil {
		v.Set("status", strconv.Itoa(int(*q.Status)))
	}
	if q.Type != nil {
		v.Set("tipo", strconv.Itoa(int(*q.Type)))
	}
	if q.Period != "" {
		v.Set("periodo", q.Period)
	}
	if q.StartDate != "" {
		v.Set("dataInicio", q.StartDate)
	}
	if q.EndDate != "" {
		v.Set("dataFim", q.EndDate)
	}
	if q.Block != "" {
		v.Set("bloco", q.Block)
	}
	if q.Apartment != "" {
		v.Set("apartamento", q.Apartment)
	}
	return v
}

// HasMore is the page-length heuristic: a full page may be followed by more.
// It is not an authoritative total.
func HasMore(pageLen int) bool {
	return pageLen == PageSize
}
