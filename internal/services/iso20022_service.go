package services

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/moov-io/iso20022/pkg/common"
	"github.com/moov-io/iso20022/pkg/pacs_v08"
	"github.com/securebank/backend/internal/apierror"
	"github.com/securebank/backend/internal/models"
)

const (
	MessagePacs008 = "pacs.008.001.08"
	MessagePacs002 = "pacs.002.001.08"

	institutionBIC = "SECBUS33XXX"
)

// ISO20022Service renders committed ledger records as ISO 20022 interbank messages.
type ISO20022Service struct {
	now func() time.Time
}

func NewISO20022Service() *ISO20022Service {
	return &ISO20022Service{now: time.Now}
}

// Export renders txn as the requested message type and returns the XML document.
func (iso *ISO20022Service) Export(txn *models.Transaction, messageType string) (string, error) {
	switch messageType {
	case "", MessagePacs008:
		doc, err := iso.CreatePacs008(txn)
		if err != nil {
			return "", err
		}
		return iso.ConvertToXML(doc)
	case MessagePacs002:
		return iso.ConvertToXML(iso.CreatePacs002(txn))
	default:
		return "", apierror.Validation(fmt.Sprintf("unsupported message type %q", messageType))
	}
}

// CreatePacs008 creates a pacs.008 FIToFICustomerCreditTransfer message. Only transfers qualify.
func (iso *ISO20022Service) CreatePacs008(txn *models.Transaction) (*pacs_v08.FIToFICustomerCreditTransferV08, error) {
	if txn.Type != models.TransactionTypeTransfer || txn.FromAccount == nil || txn.ToAccount == nil {
		return nil, apierror.Validation("Only transfers can be exported as pacs.008")
	}

	msgId := uuid.New().String()
	creDtTm := iso.now()
	settlementDate := txn.CreatedAt
	amount := pacs_v08.ActiveCurrencyAndAmount{
		Ccy:   common.ActiveCurrencyCode(txn.Currency),
		Value: txn.Amount.InexactFloat64(),
	}
	txID := common.Max35Text(strings.ReplaceAll(txn.ID, "-", ""))
	bic := common.BICFIDec2014Identifier(institutionBIC)
	debtor := common.Max140Text(txn.FromAccount.AccountNumber)
	creditor := common.Max140Text(txn.ToAccount.AccountNumber)

	doc := &pacs_v08.FIToFICustomerCreditTransferV08{
		GrpHdr: pacs_v08.GroupHeader93{
			MsgId:             common.Max35Text(msgId),
			CreDtTm:           common.ISODateTime(creDtTm),
			NbOfTxs:           "1",
			TtlIntrBkSttlmAmt: &amount,
			IntrBkSttlmDt:     (*common.ISODate)(&settlementDate),
			SttlmInf: pacs_v08.SettlementInstruction7{
				SttlmMtd: "INDA", // settled on our own books
			},
		},
		CdtTrfTxInf: []pacs_v08.CreditTransferTransaction39{
			{
				PmtId: pacs_v08.PaymentIdentification7{
					InstrId:    &txID,
					EndToEndId: common.Max35Text(txn.Reference),
					TxId:       &txID,
				},
				IntrBkSttlmAmt: amount,
				IntrBkSttlmDt:  (*common.ISODate)(&settlementDate),
				ChrgBr:         "SLEV",
				DbtrAgt: pacs_v08.BranchAndFinancialInstitutionIdentification6{
					FinInstnId: pacs_v08.FinancialInstitutionIdentification18{BICFI: &bic},
				},
				Dbtr: pacs_v08.PartyIdentification135{Nm: &debtor},
				CdtrAgt: pacs_v08.BranchAndFinancialInstitutionIdentification6{
					FinInstnId: pacs_v08.FinancialInstitutionIdentification18{BICFI: &bic},
				},
				Cdtr: pacs_v08.PartyIdentification135{Nm: &creditor},
			},
		},
	}

	return doc, nil
}

// CreatePacs002 creates a pacs.002 payment status report for any ledger record.
func (iso *ISO20022Service) CreatePacs002(txn *models.Transaction) *pacs_v08.FIToFIPaymentStatusReportV08 {
	txID := common.Max35Text(strings.ReplaceAll(txn.ID, "-", ""))
	endToEnd := common.Max35Text(txn.Reference)
	status := pacs_v08.ExternalPaymentTransactionStatus1Code(statusCode(txn.Status))

	return &pacs_v08.FIToFIPaymentStatusReportV08{
		GrpHdr: pacs_v08.GroupHeader53{
			MsgId:   common.Max35Text(uuid.New().String()),
			CreDtTm: common.ISODateTime(iso.now()),
		},
		TxInfAndSts: []pacs_v08.PaymentTransaction80{
			{
				OrgnlInstrId:    &txID,
				OrgnlEndToEndId: &endToEnd,
				OrgnlTxId:       &txID,
				TxSts:           &status,
			},
		},
	}
}

// ConvertToXML converts ISO20022 document to XML string
func (iso *ISO20022Service) ConvertToXML(doc any) (string, error) {
	xmlData, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", apierror.Storage("failed to marshal XML", err)
	}
	return xml.Header + string(xmlData), nil
}

func statusCode(status string) string {
	switch status {
	case models.TransactionStatusCompleted:
		return "ACSC"
	case models.TransactionStatusFailed:
		return "RJCT"
	default:
		return "PDNG"
	}
}
