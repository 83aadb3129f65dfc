package main

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

func main() {
	dirKeys := "sm2keys"

	// Load the config, generate and save keys
	filePath := "cmd/sm2keygen/accounts.yaml"
	if len(os.Args) > 1 {
		filePath = os.Args[1]
	}

	accounts, err := loadConfig(filePath)
	if err != nil {
		log.Fatalln(err)
	}

	keys, err := generateKeys(dirKeys, accounts)
	if err != nil {
		log.Fatalln(err)
	}

	for _, key := range keys {
		fmt.Printf("%v\t%v\t%v\n", key.Name, key.Address, key.SK)
	}
}

// loadConfig reads the names of the accounts (owners, co-validators, the devnet master key...) to generate keys for.
func loadConfig(filePath string) ([]string, error) {
	fileBytes, err := ioutil.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read config file")
	}

	accounts := []string{}
	if err = yaml.Unmarshal(fileBytes, &accounts); err != nil {
		return nil, errors.Wrap(err, "cannot load config file")
	}

	if len(accounts) == 0 {
		return nil, fmt.Errorf("no account is listed in '%v'", filePath)
	}

	return accounts, nil
}
