package editor

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rezonia/efactura-editor/internal/model"
)

// ActionType names a session operation
type ActionType string

const (
	ActionAddLine         ActionType = "add_line"
	ActionRemoveLine      ActionType = "remove_line"
	ActionUpdateLine      ActionType = "update_line"
	ActionAddCharge       ActionType = "add_charge"
	ActionRemoveCharge    ActionType = "remove_charge"
	ActionUpdateCharge    ActionType = "update_charge"
	ActionUpdateVATRow    ActionType = "update_vat_row"
	ActionUpdateVATAmount ActionType = "update_vat_amount"
	ActionRemoveVATRow    ActionType = "remove_vat_row"
	ActionAddVATRate      ActionType = "add_vat_rate"
	ActionUpdateHeader    ActionType = "update_header"
	ActionSetParty        ActionType = "set_party"
	ActionEditTotal       ActionType = "edit_total"
	ActionRefresh         ActionType = "refresh"
	ActionStorno          ActionType = "storno"
)

// Action is one serialized session operation, as posted by a UI
type Action struct {
	Op     ActionType       `json:"op"`
	Index  int              `json:"index,omitempty"`
	RowID  string           `json:"row_id,omitempty"`
	Charge bool             `json:"charge,omitempty"`
	Line   *LineEdit        `json:"line,omitempty"`
	Entry  *ChargeEdit      `json:"entry,omitempty"`
	Row    *VATRowEdit      `json:"row,omitempty"`
	Header *HeaderEdit      `json:"header,omitempty"`
	Role   Role             `json:"role,omitempty"`
	Party  *model.Party     `json:"party,omitempty"`
	Rate   decimal.Decimal  `json:"rate"`
	Type   model.VATType    `json:"type,omitempty"`
	Field  model.TotalField `json:"field,omitempty"`
	Value  decimal.Decimal  `json:"value"`
}

// Apply runs one action
func (s *Session) Apply(a Action) error {
	switch a.Op {
	case ActionAddLine:
		s.AddLineItem()
	case ActionRemoveLine:
		return s.RemoveLineItem(a.Index)
	case ActionUpdateLine:
		if a.Line == nil {
			return fmt.Errorf("%s: missing line", a.Op)
		}
		return s.UpdateLineItem(a.Index, *a.Line)
	case ActionAddCharge:
		s.AddAllowanceCharge(a.Charge)
	case ActionRemoveCharge:
		return s.RemoveAllowanceCharge(a.Index)
	case ActionUpdateCharge:
		if a.Entry == nil {
			return fmt.Errorf("%s: missing entry", a.Op)
		}
		return s.UpdateAllowanceCharge(a.Index, *a.Entry)
	case ActionUpdateVATRow:
		if a.Row == nil {
			return fmt.Errorf("%s: missing row", a.Op)
		}
		return s.UpdateVATRow(a.RowID, *a.Row)
	case ActionUpdateVATAmount:
		return s.UpdateVATRowFromAmount(a.RowID, a.Value)
	case ActionRemoveVATRow:
		return s.RemoveVATRow(a.RowID)
	case ActionAddVATRate:
		_, err := s.AddVATRate(a.Rate, a.Type)
		return err
	case ActionUpdateHeader:
		if a.Header == nil {
			return fmt.Errorf("%s: missing header", a.Op)
		}
		s.UpdateHeader(*a.Header)
	case ActionSetParty:
		if a.Party == nil {
			return fmt.Errorf("%s: missing party", a.Op)
		}
		return s.SetParty(a.Role, *a.Party)
	case ActionEditTotal:
		return s.EditTotal(a.Field, a.Value)
	case ActionRefresh:
		s.RefreshTotals()
	case ActionStorno:
		s.HandleStorno()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, a.Op)
	}
	return nil
}

// ApplyAll runs actions in order and stops at the first failure
func (s *Session) ApplyAll(actions []Action) error {
	for i, a := range actions {
		if err := s.Apply(a); err != nil {
			return fmt.Errorf("action %d (%s): %w", i, a.Op, err)
		}
	}
	return nil
}
