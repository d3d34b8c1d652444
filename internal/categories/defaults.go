package categories

import "github.com/studiops/bankrecon/internal/model"

// DefaultCategory receives debits that no rule matches.
const DefaultCategory = "Geral"

// FeeCategory receives card processor fees split off acquirer settlements.
const FeeCategory = "Taxas de cartão"

// DefaultRules returns the starter keyword rules for a studio.
func DefaultRules() []model.CategoryRule {
	return []model.CategoryRule{
		{Keyword: "TARIFA", CategoryName: "Tarifas bancárias", Priority: 100},
		{Keyword: "IOF", CategoryName: "Tarifas bancárias", Priority: 100},
		{Keyword: "CONCESSIONARIA", CategoryName: "Contas de consumo", Priority: 90},
		{Keyword: "ENEL", CategoryName: "Contas de consumo", Priority: 80},
		{Keyword: "SABESP", CategoryName: "Contas de consumo", Priority: 80},
		{Keyword: "CLARO", CategoryName: "Contas de consumo", Priority: 80},
		{Keyword: "VIVO", CategoryName: "Contas de consumo", Priority: 80},
		{Keyword: "ALUGUEL", CategoryName: "Aluguel", Priority: 70},
		{Keyword: "CONDOMINIO", CategoryName: "Aluguel", Priority: 70},
		{Keyword: "DARF", CategoryName: "Impostos", Priority: 60},
		{Keyword: "SIMPLES NACIONAL", CategoryName: "Impostos", Priority: 60},
		{Keyword: "FGTS", CategoryName: "Folha de pagamento", Priority: 60},
		{Keyword: "SALARIO", CategoryName: "Folha de pagamento", Priority: 50},
		{Keyword: "EQUIPAMENTO", CategoryName: "Equipamentos", Priority: 40},
		{Keyword: "LIMPEZA", CategoryName: "Manutenção", Priority: 40},
		{Keyword: "MANUTENCAO", CategoryName: "Manutenção", Priority: 40},
		{Keyword: "GOOGLE", CategoryName: "Marketing", Priority: 30},
		{Keyword: "FACEBK", CategoryName: "Marketing", Priority: 30},
		{Keyword: "META ADS", CategoryName: "Marketing", Priority: 30},
	}
}
