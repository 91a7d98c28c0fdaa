// Command ntpsync: сервис синхронизации системного времени с NTP сервером.
//
// Параметры синхронизации (Server, Port, PollIntervalHours) читаются из
// SYSTEM/CurrentControlSet/Services/<имя сервиса>/Parameters: в реестре Windows
// или в YAML файле с тем же деревом ключей.
//
// Использование:
//
//	ntpsync                        запуск сервиса (блокируется до SIGINT/SIGTERM)
//	ntpsync once [--apply]         однократный запрос времени
//	ntpsync settings               вывести текущие параметры
//	ntpsync service install        установить системный сервис
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
