package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripAccents(t *testing.T) {
	assert.Equal(t, "Credito", StripAccents("Crédito"))
	assert.Equal(t, "SALDO TOTAL DISPONIVEL", StripAccents("SALDO TOTAL DISPONÍVEL"))
	assert.Equal(t, "cartao", StripAccents("cartão"))
}

func TestFold(t *testing.T) {
	assert.Equal(t, "PIX RECEBIDO JOAO DA SILVA", Fold("  Pix   recebido  João da Silva "))
	assert.Equal(t, "", Fold("   "))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "descricao", Key("Descrição"))
	assert.Equal(t, "data lancamento", Key(" Data  Lançamento"))
}

func TestContainsAny(t *testing.T) {
	assert.True(t, ContainsAny("RECEBIMENTO REDE VISA", "CIELO", "REDE"))
	assert.False(t, ContainsAny("PIX ENVIADO", "REDE", ""))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Descri", Truncate("Descrição", 6))
	assert.Equal(t, "Descriçã", Truncate("Descrição", 8))
	assert.Equal(t, "curto", Truncate("curto", 255))
	assert.Equal(t, "", Truncate("", 3))
}

func TestDecode(t *testing.T) {
	assert.Equal(t, "Descrição", Decode([]byte("Descrição")))
	assert.Equal(t, "abc", Decode([]byte{0xEF, 0xBB, 0xBF, 'a', 'b', 'c'}))

	// "Crédito" in Windows-1252.
	latin := []byte{'C', 'r', 0xE9, 'd', 'i', 't', 'o'}
	assert.Equal(t, "Crédito", Decode(latin))
}
