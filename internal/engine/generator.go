package engine

import (
	"strings"
	"time"

	"lite2flake/internal/dialect"

	"github.com/brianvoe/gofakeit/v6"
)

// Column name fragments expanded before guessing what a column holds.
var abbreviations = map[string]string{
	"nm": "name", "dt": "date", "no": "number", "cd": "code",
	"desc": "description", "amt": "amount", "cnt": "count", "qty": "quantity",
	"addr": "address", "tel": "phone", "ph": "phone", "zip": "zipcode",
	"bal": "balance", "freq": "frequency", "sym": "symbol", "typ": "type",
	"yn": "yesno", "is": "yesno", "flg": "flag", "stat": "status",
}

// columnMeaning decodes a column name such as "acct_bal_amt" into words.
func columnMeaning(name string) string {
	parts := strings.Split(strings.ToLower(name), "_")
	for i, p := range parts {
		if full, ok := abbreviations[p]; ok {
			parts[i] = full
		}
	}
	return strings.Join(parts, " ")
}

func hasWord(meaning string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(meaning, w) {
			return true
		}
	}
	return false
}

// GenerateValue produces a random value for a source column. The declared
// type decides the kind of value, the column name refines it.
func GenerateValue(col dialect.ColumnDef) any {
	dataType := strings.ToLower(col.Type)
	meaning := columnMeaning(col.Name)

	// 1. 텍스트
	if dataType == "" || hasWord(dataType, "char", "text", "clob") {
		switch {
		case hasWord(meaning, "email"):
			return gofakeit.Email()
		case hasWord(meaning, "phone"):
			return gofakeit.Phone()
		case hasWord(meaning, "name"):
			return gofakeit.Name()
		case hasWord(meaning, "address", "street"):
			return gofakeit.Street()
		case hasWord(meaning, "city", "district"):
			return gofakeit.City()
		case hasWord(meaning, "zipcode"):
			return gofakeit.Zip()
		case hasWord(meaning, "frequency"):
			return gofakeit.RandomString([]string{"POPLATEK MESICNE", "POPLATEK TYDNE", "POPLATEK PO OBRATU"})
		case hasWord(meaning, "symbol", "type", "status", "code"):
			// Blank categorical values are common in the source corpus.
			return gofakeit.RandomString([]string{"", "POJISTNE", "SIPO", "LEASING", "UVER"})
		case hasWord(meaning, "bank"):
			return strings.ToUpper(gofakeit.LetterN(2))
		case hasWord(meaning, "yesno", "flag"):
			return gofakeit.RandomString([]string{"Y", "N"})
		case hasWord(meaning, "description", "comment", "note"):
			return gofakeit.Sentence(8)
		}
		return gofakeit.Word()
	}

	// 2. 날짜/시간
	if hasWord(dataType, "date", "time") {
		val := gofakeit.DateRange(time.Now().AddDate(-5, 0, 0), time.Now())
		if dataType == "date" {
			return val.Format("2006-01-02")
		}
		return val.Format("2006-01-02 15:04:05")
	}

	// 3. 숫자
	if strings.Contains(dataType, "int") {
		if hasWord(meaning, "yesno", "flag") {
			return gofakeit.Number(0, 1)
		}
		if hasWord(meaning, "year") {
			return gofakeit.Number(1995, 2025)
		}
		if hasWord(meaning, "account", "number") {
			return gofakeit.Number(10000000, 99999999)
		}
		return gofakeit.Number(1, 50000)
	}
	if hasWord(dataType, "real", "float", "double", "decimal", "numeric") {
		if hasWord(meaning, "amount", "balance", "price", "payment") {
			return gofakeit.Price(10, 100000)
		}
		return gofakeit.Float64Range(0, 1000)
	}

	if strings.Contains(dataType, "bool") {
		return gofakeit.Bool()
	}
	if hasWord(dataType, "blob", "binary") {
		return []byte(gofakeit.LetterN(8))
	}
	return gofakeit.Word()
}
