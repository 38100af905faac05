package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatOperationOrg renders an OperationRecord as an Org-mode block for
// pasting into a trading journal. Structured facts live in a PROPERTIES
// drawer for easy search; the narrative sections stay blank for the human.
func FormatOperationOrg(op OperationRecord) string {
	heading := fmt.Sprintf("** Operation: %s #%d (%s)", op.Symbol, op.Ticket, op.Direction)
	openT := op.OpenTime.UTC().Format(time.RFC3339)
	recT := op.RecordedAt.UTC().Format(time.RFC3339)

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":RUN_ID: %s\n", op.RunID))
	b.WriteString(fmt.Sprintf(":TICKET: %d\n", op.Ticket))
	b.WriteString(fmt.Sprintf(":SYMBOL: %s\n", op.Symbol))
	b.WriteString(fmt.Sprintf(":MAGIC: %d\n", int(op.Magic)))
	b.WriteString(fmt.Sprintf(":DIRECTION: %s\n", op.Direction))
	b.WriteString(fmt.Sprintf(":ORDER_TYPE: %s\n", op.OrderType))
	b.WriteString(fmt.Sprintf(":LOTS: %.2f\n", op.Lots))
	b.WriteString(fmt.Sprintf(":ENTRY_PRICE: %.5f\n", op.EntryPrice))
	b.WriteString(fmt.Sprintf(":STOP_LOSS: %.5f\n", op.StopLoss))
	b.WriteString(fmt.Sprintf(":TAKE_PROFIT: %.5f\n", op.TakeProfit))
	b.WriteString(fmt.Sprintf(":RISK_AMOUNT: %.2f\n", op.RiskAmount))
	b.WriteString(fmt.Sprintf(":STATUS: %s\n", op.Status))
	b.WriteString(fmt.Sprintf(":OPEN_TIME: %s\n", openT))
	b.WriteString(fmt.Sprintf(":RECORDED_AT: %s\n", recT))
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Thesis\n- \n\n")
	b.WriteString("*** Review\n- \n")

	return b.String()
}

// FormatOperationsOrg renders multiple operations separated by blank lines.
func FormatOperationsOrg(ops []OperationRecord) string {
	var b strings.Builder
	for i, op := range ops {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatOperationOrg(op))
	}
	return b.String()
}
