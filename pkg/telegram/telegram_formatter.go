package telegram

import (
	"fmt"
	"strings"
	"time"

	"golang-market-stress/internal/entity"
	"golang-market-stress/internal/executor/dto"
	"golang-market-stress/pkg/utils"
)

const maxMessageLen = 4090

// FormatMarketStressMessage renders a finished run as a Markdown message.
func FormatMarketStressMessage(report dto.RunReport, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}

	var b strings.Builder

	stateIcon := "😟"
	stateLabel := "Mercado estresado"
	if report.Result.MarketState == entity.MarketStateOptimistic {
		stateIcon = "😊"
		stateLabel = "Mercado optimista"
	}

	b.WriteString("📰 *Estrés de Mercado* 📰\n\n")
	b.WriteString(fmt.Sprintf("%s *Estado:* %s\n", stateIcon, stateLabel))
	if report.Result.Total == 0 {
		b.WriteString("ℹ️ Sin noticias para calcular el sentimiento.\n")
	} else {
		b.WriteString(fmt.Sprintf("📈 *Positivas:* %.1f%% (%d)\n", report.Result.PositiveRatio*100, report.Result.Positive))
		b.WriteString(fmt.Sprintf("📉 *Negativas:* %.1f%% (%d)\n", report.Result.NegativeRatio*100, report.Result.Negative))
		b.WriteString(fmt.Sprintf("🗂 *Total:* %d (%d nuevas)\n", report.Result.Total, report.FreshRecords))
	}

	if report.SourceError != "" {
		b.WriteString("⚠️ Fuente de noticias no disponible en esta ejecución.\n")
	}
	if n := len(report.ItemFailures) + len(report.Write.Failed); n > 0 {
		b.WriteString(fmt.Sprintf("⚠️ *Noticias omitidas:* %d\n", n))
	}

	b.WriteString(fmt.Sprintf("\n🕒 %s", report.CompletedAt.In(loc).Format("2006-01-02 15:04 MST")))

	return utils.Truncate(escapeMarkdown(b.String()), maxMessageLen)
}

// escapeMarkdown escapes the legacy Markdown characters Telegram would
// otherwise try to interpret inside values.
func escapeMarkdown(text string) string {
	return strings.NewReplacer("_", "\\_", "[", "\\[", "`", "\\`").Replace(text)
}
