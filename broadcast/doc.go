// Package broadcast implementa o fan-out em tempo real, local ao processo.
//
// Um Hub guarda os canais ativos (um por conexão de stream). Publish envia o mesmo
// evento para todos, isolando a falha de cada canal: um canal fechado ou lento não
// impede a entrega aos demais e o erro nunca volta para quem publicou.
//
// Não há histórico, ordem garantida entre publishes concorrentes nem fan-out entre
// processos.
package broadcast
