package sqlgen

import (
	"fmt"
	"strings"

	"github.com/caresuite/nl2sql"
)

// systemPromptHeader is the generator persona. Scoping instructions are
// appended per request, so prompts for the same question stay identical
// unless the scope changes.
const systemPromptHeader = "You are an expert SQL generator for a complex healthcare MySQL database.\n\n" +
	"You must:\n" +
	"- Use ONLY the tables and columns that exist in the provided schema context.\n" +
	"- Choose the correct joins and filters based on the question.\n" +
	"- Prefer patient-level queries where each row corresponds to a patient.\n" +
	"- Use the `patient` table (aliased as `p`) as the main driving table whenever possible.\n" +
	"- Unless the user explicitly wants only an aggregate (e.g. COUNT(*)), start your query with:\n" +
	"    SELECT p.id\n" +
	"  and then any additional columns needed.\n" +
	"- Write valid MySQL SQL.\n" +
	"- Output a single valid SQL statement.\n" +
	"- Do NOT include explanations, comments, or Markdown.\n" +
	"- Do NOT wrap the SQL in backticks.\n" +
	"- Do NOT use placeholders like <value>; use concrete values when the question implies them.\n"

// baseScopeLines open the SCOPING INSTRUCTIONS block on every request.
var baseScopeLines = []string{
	"Think from a PATIENT-CENTRIC perspective.",
	"Whenever it makes sense, return one row per patient.",
	"Use the `patient` table as the driving table, aliased as `p`.",
	"Unless the user explicitly asks only for an aggregate (like COUNT), start the SELECT clause with `SELECT p.id` as the first column, then add any other needed patient columns.",
	"Use MySQL-compatible SQL syntax.",
}

func systemPrompt(scopeLines []string) string {
	return systemPromptHeader + "\nSCOPING INSTRUCTIONS:\n" + strings.Join(scopeLines, "\n")
}

// userPrompt lays out the question, the retrieved schema chunks numbered
// by rank, and the output order.
func userPrompt(question string, chunks []nl2sql.ScoredChunk) string {
	var b strings.Builder
	b.WriteString("User question:\n")
	b.WriteString(question)
	b.WriteString("\n\nRelevant schema (top matches):\n")
	for i, chunk := range chunks {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, chunk.Text)
	}
	b.WriteString("\nReturn ONLY the SQL statement.")
	return b.String()
}

func rosterScopeLine(id any) string {
	return fmt.Sprintf("- The selected roster_id is %v. Restrict results to patients in that roster.\n"+
		"  Typically you should join the roster/patient association table, for example:\n"+
		"  `FROM patient p\n"+
		"   JOIN roster_patient rp ON rp.patient_id = p.id\n"+
		"     AND rp.is_deleted = 0\n"+
		"     AND rp.is_active = 1\n"+
		"     AND rp.roster_id = %v`\n"+
		"  Adjust table and column names to match the actual schema, but always limit to this roster when roster_id is given.", id, id)
}

func clientScopeLine(id any) string {
	return fmt.Sprintf("- The selected client_id is %v. If relevant tables have a `client_id` column, "+
		"add conditions like `AND <table>.client_id = %v` so the query is scoped to that client.", id, id)
}
