package reports

import (
	"strings"

	"github.com/mmdatafocus/stock_ledger/models"
	"github.com/shopspring/decimal"
)

type TransactionLogResponse struct {
	TransactionId  string                 `json:"transactionId"`
	Date           string                 `json:"date"`
	DocumentDate   string                 `json:"documentDate"`
	Type           models.TransactionType `json:"type"`
	DocumentType   models.DocumentType    `json:"documentType"`
	DocumentNumber string                 `json:"documentNumber"`
	PartyName      string                 `json:"partyName"`
	Items          string                 `json:"items"`
	TotalAmount    decimal.Decimal        `json:"totalAmount"`
}

var TransactionLogHeadings = []string{"Date", "Doc Date", "Type", "Doc Type", "Doc No", "Party", "Items", "Amount"}

func (r *TransactionLogResponse) GetCellValues() []interface{} {
	return []interface{}{
		r.Date, r.DocumentDate, string(r.Type), string(r.DocumentType),
		r.DocumentNumber, r.PartyName, r.Items, r.TotalAmount.InexactFloat64(),
	}
}

// GetTransactionLogReport lists history newest-first, limited to [fromDate, toDate]
// on the movement date when either bound is set.
func GetTransactionLogReport(snap *models.Snapshot, fromDate string, toDate string) []*TransactionLogResponse {
	records := make([]*TransactionLogResponse, 0, len(snap.Transactions))
	for _, t := range snap.Transactions {
		if fromDate != "" && t.Date < fromDate {
			continue
		}
		if toDate != "" && t.Date > toDate {
			continue
		}
		names := make([]string, 0, len(t.Items))
		for _, item := range t.Items {
			names = append(names, item.ProductName)
		}
		records = append(records, &TransactionLogResponse{
			TransactionId:  t.ID,
			Date:           t.Date,
			DocumentDate:   t.DocumentDate,
			Type:           t.Type,
			DocumentType:   t.DocumentType,
			DocumentNumber: t.DocumentNumber,
			PartyName:      t.PartyName,
			Items:          strings.Join(names, ", "),
			TotalAmount:    t.TotalAmount,
		})
	}
	return records
}

func TransactionLogSheet(snap *models.Snapshot, fromDate string, toDate string) Sheet {
	return Sheet{Name: "Transaction Log", Headings: TransactionLogHeadings, Rows: rowsOf(GetTransactionLogReport(snap, fromDate, toDate))}
}
