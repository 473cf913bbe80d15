package bot

import (
	"fmt"
	"time"
)

// Awaiting-input kinds stored in the governance session marker. The value a
// prompt command arms decides how the user's next free-text message is routed.
const (
	awaitCNPJ          = "cnpj"
	awaitServants      = "servidores"
	awaitBenefits      = "beneficios"
	awaitPlate         = "veicular"
	awaitEmail         = "dados_vazados"
	awaitCEP           = "cep"
	awaitTransparencia = "transparencia_menu"
)

const msgWelcome = `👋 Olá! Eu sou o bot de consulta de dados públicos brasileiros.

Posso consultar:
• /consulta_cnpj — dados de empresas (CNPJ)
• /transparencia — servidores públicos e benefícios sociais
• /veicular — consulta veicular por placa
• /dados_vazados — verificar se um e-mail apareceu em vazamentos
• /cep — endereço por CEP

Ao usar o bot você concorda que as consultas são feitas em bases públicas e registradas de forma anônima. Nenhum dado pessoal seu é armazenado em texto claro.

Digite /menu para ver as opções ou /ajuda para instruções.`

const msgHelp = `ℹ️ Como usar:

Envie um comando e em seguida o dado a consultar, ou tudo de uma vez:

/consulta_cnpj 11.222.333/0001-81
/veicular ABC1D23
/dados_vazados seuemail@exemplo.com
/cep 01001-000
/transparencia — abre o menu de servidores e benefícios

As consultas usam apenas bases públicas (BrasilAPI e Portal da Transparência). Há um limite de consultas por minuto para manter o serviço estável.`

const msgMenu = `📋 Menu de consultas:

1️⃣ /consulta_cnpj — empresas por CNPJ
2️⃣ /transparencia — servidores e benefícios
3️⃣ /veicular — veículos por placa
4️⃣ /dados_vazados — vazamentos por e-mail
5️⃣ /cep — endereço por CEP

Envie um comando para começar.`

const msgTransparenciaMenu = `🏛 Portal da Transparência — escolha uma opção:

1 — Servidores públicos federais (por CPF)
2 — Benefícios sociais (por CPF ou NIS)

Responda com o número da opção.`

const msgBlocked = `⛔ Seu acesso ao bot está bloqueado. Se você acredita que isso é um engano, entre em contato com o suporte.`

const msgUnknownCommand = `🤔 Não reconheci esse comando.

` + msgMenu

const (
	promptCNPJ     = `🏢 Envie o CNPJ da empresa (apenas números ou com pontuação):`
	promptServants = `👤 Envie o CPF do servidor (11 dígitos):`
	promptBenefits = `🤝 Envie o CPF ou NIS do beneficiário (11 dígitos):`
	promptPlate    = `🚗 Envie a placa do veículo (ex.: ABC1234 ou ABC1D23):`
	promptEmail    = `📧 Envie o e-mail que deseja verificar:`
	promptCEP      = `📮 Envie o CEP (8 dígitos):`
)

const (
	msgInvalidCNPJ  = `❌ CNPJ inválido. Envie 14 dígitos, com ou sem pontuação.`
	msgInvalidCPF   = `❌ CPF inválido. Envie 11 dígitos, com ou sem pontuação.`
	msgInvalidPlate = `❌ Placa inválida. Use o formato ABC1234 ou ABC1D23.`
	msgInvalidEmail = `❌ E-mail inválido. Confira o endereço e tente novamente.`
	msgInvalidCEP   = `❌ CEP inválido. Envie 8 dígitos.`
)

const msgNotFound = `🔍 Nenhum registro encontrado para essa consulta.`

const msgUnavailable = `😕 O serviço de consulta está temporariamente indisponível. Tente novamente em alguns minutos.`

func rateLimitMessage(retryAfter time.Duration) string {
	seconds := int(retryAfter.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return fmt.Sprintf("⏳ Você atingiu o limite de consultas. Tente novamente em %d segundos.", seconds)
}
