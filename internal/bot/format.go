package bot

import (
	"encoding/json"
	"fmt"
	"strings"

	"brdatabot/internal/domain"
	"brdatabot/internal/query"
)

// Rendering of typed lookup results into chat text. Both Telegram and
// WhatsApp accept *bold* markup, so a single renderer serves both.

func formatCompany(res query.CompanyResult) string {
	switch res.Status {
	case domain.StatusSuccess:
	case domain.StatusNotFound:
		return msgNotFound
	default:
		return msgUnavailable
	}

	c := res.Company
	var b strings.Builder
	fmt.Fprintf(&b, "🏢 *%s*\n", c.RazaoSocial)
	if c.NomeFantasia != "" {
		fmt.Fprintf(&b, "Nome fantasia: %s\n", c.NomeFantasia)
	}
	fmt.Fprintf(&b, "CNPJ: %s\n", c.CNPJ)
	fmt.Fprintf(&b, "Situação: %s\n", c.SituacaoCadastral)
	if c.DataInicioAtividade != "" {
		fmt.Fprintf(&b, "Início das atividades: %s\n", c.DataInicioAtividade)
	}
	if c.NaturezaJuridica != "" {
		fmt.Fprintf(&b, "Natureza jurídica: %s\n", c.NaturezaJuridica)
	}
	if c.Porte != "" {
		fmt.Fprintf(&b, "Porte: %s\n", c.Porte)
	}
	if c.AtividadePrincipal != "" {
		fmt.Fprintf(&b, "Atividade principal: %s\n", c.AtividadePrincipal)
	}

	if addr := companyAddress(c.Logradouro, c.Numero, c.Complemento, c.Bairro, c.Municipio, c.UF, c.CEP); addr != "" {
		fmt.Fprintf(&b, "Endereço: %s\n", addr)
	}
	if c.Telefone != "" {
		fmt.Fprintf(&b, "Telefone: %s\n", c.Telefone)
	}
	if c.Email != "" {
		fmt.Fprintf(&b, "E-mail: %s\n", c.Email)
	}
	return strings.TrimRight(b.String(), "\n")
}

func companyAddress(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

func formatAddress(res query.AddressResult) string {
	switch res.Status {
	case domain.StatusSuccess:
	case domain.StatusNotFound:
		return msgNotFound
	default:
		return msgUnavailable
	}

	a := res.Address
	var b strings.Builder
	b.WriteString("📮 *Endereço encontrado*\n")
	if a.Street != "" {
		fmt.Fprintf(&b, "Logradouro: %s\n", a.Street)
	}
	if a.Neighborhood != "" {
		fmt.Fprintf(&b, "Bairro: %s\n", a.Neighborhood)
	}
	fmt.Fprintf(&b, "Cidade: %s/%s\n", a.City, a.State)
	fmt.Fprintf(&b, "CEP: %s", a.CEP)
	return b.String()
}

// servantRecord decodes only the fields the chat summary needs from the
// Portal da Transparência servant payload.
type servantRecord struct {
	Servidor struct {
		Pessoa struct {
			Nome string `json:"nome"`
		} `json:"pessoa"`
		OrgaoServidorLotacao struct {
			Nome string `json:"nome"`
		} `json:"orgaoServidorLotacao"`
	} `json:"servidor"`
}

func formatServants(res query.ServantsResult) string {
	switch res.Status {
	case domain.StatusSuccess:
	case domain.StatusNotFound:
		return msgNotFound
	default:
		return msgUnavailable
	}

	var b strings.Builder
	fmt.Fprintf(&b, "👤 *Servidores encontrados: %d*\n", len(res.Records))
	for _, raw := range res.Records {
		var rec servantRecord
		if err := json.Unmarshal(raw, &rec); err != nil || rec.Servidor.Pessoa.Nome == "" {
			continue
		}
		if rec.Servidor.OrgaoServidorLotacao.Nome != "" {
			fmt.Fprintf(&b, "• %s — %s\n", rec.Servidor.Pessoa.Nome, rec.Servidor.OrgaoServidorLotacao.Nome)
		} else {
			fmt.Fprintf(&b, "• %s\n", rec.Servidor.Pessoa.Nome)
		}
	}
	b.WriteString("\nFonte: Portal da Transparência")
	return b.String()
}

// benefitLabels maps upstream endpoint names to user-facing program names.
var benefitLabels = map[string]string{
	"bolsa-familia-disponivel-por-cpf-ou-nis": "Bolsa Família",
	"auxilio-brasil-sacado-por-nis":           "Auxílio Brasil",
	"bpc-por-cpf-ou-nis":                      "BPC",
}

func formatBenefits(res query.BenefitsResult) string {
	switch res.Status {
	case domain.StatusSuccess:
	case domain.StatusNotFound:
		return msgNotFound
	default:
		return msgUnavailable
	}

	var b strings.Builder
	b.WriteString("🤝 *Benefícios encontrados*\n")
	for endpoint, raw := range res.Sources {
		label := benefitLabels[endpoint]
		if label == "" {
			label = endpoint
		}
		var records []json.RawMessage
		_ = json.Unmarshal(raw, &records)
		fmt.Fprintf(&b, "• %s: %d registro(s)\n", label, len(records))
	}
	b.WriteString("\nFonte: Portal da Transparência")
	return b.String()
}

func formatBreaches(res query.BreachResult) string {
	switch res.Status {
	case domain.StatusSuccess:
	default:
		return msgUnavailable
	}

	if res.Safe {
		return "✅ Boa notícia! Esse e-mail não foi encontrado em nenhum vazamento de dados conhecido."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ *Esse e-mail apareceu em %d vazamento(s):*\n", len(res.Breaches))
	for _, breach := range res.Breaches {
		title := breach.Title
		if title == "" {
			title = breach.Name
		}
		fmt.Fprintf(&b, "• %s (%s)", title, breach.BreachDate)
		if len(breach.DataClasses) > 0 {
			fmt.Fprintf(&b, " — dados expostos: %s", strings.Join(breach.DataClasses, ", "))
		}
		b.WriteString("\n")
	}
	b.WriteString("\nRecomendação: troque a senha dessa conta e ative a verificação em duas etapas.")
	return b.String()
}

func formatVehicle(res query.VehicleResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚗 *Placa %s*\n\n", res.Plate)
	b.WriteString("Consultas veiculares só estão disponíveis nos canais oficiais:\n")
	for _, link := range res.Links {
		fmt.Fprintf(&b, "• %s: %s\n", link.Name, link.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}
