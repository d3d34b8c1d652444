package model

// TransactionKind is the semantic type assigned to a bank line by the classifier.
// The set is closed; every consumer switches over the constants below.
type TransactionKind string

const (
	KindBalance          TransactionKind = "balance"
	KindInvestmentReturn TransactionKind = "investment_return"
	KindPixReceived      TransactionKind = "pix_received"
	KindPixSent          TransactionKind = "pix_sent"
	KindCardVisaDebit    TransactionKind = "card_visa_debit"
	KindCardVisaCredit   TransactionKind = "card_visa_credit"
	KindCardMasterDebit  TransactionKind = "card_master_debit"
	KindCardMasterCredit TransactionKind = "card_master_credit"
	KindCardReceived     TransactionKind = "card_received"
	KindBoletoPaid       TransactionKind = "boleto_paid"
	KindUtilityPaid      TransactionKind = "utility_paid"
	KindOtherCredit      TransactionKind = "other_credit"
	KindOtherDebit       TransactionKind = "other_debit"
)

// AllKinds lists every TransactionKind in classifier rule order.
func AllKinds() []TransactionKind {
	return []TransactionKind{
		KindBalance,
		KindInvestmentReturn,
		KindPixReceived,
		KindPixSent,
		KindCardVisaDebit,
		KindCardVisaCredit,
		KindCardMasterDebit,
		KindCardMasterCredit,
		KindCardReceived,
		KindBoletoPaid,
		KindUtilityPaid,
		KindOtherCredit,
		KindOtherDebit,
	}
}

// IsCardSettlement reports whether the kind is a card-acquirer deposit.
func (k TransactionKind) IsCardSettlement() bool {
	switch k {
	case KindCardVisaDebit, KindCardVisaCredit, KindCardMasterDebit, KindCardMasterCredit, KindCardReceived:
		return true
	}
	return false
}

// Valid reports whether k is one of the known kinds.
func (k TransactionKind) Valid() bool {
	for _, known := range AllKinds() {
		if k == known {
			return true
		}
	}
	return false
}
