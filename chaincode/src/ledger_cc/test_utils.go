package main

import (
	"testing"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-chaincode-go/shimtest"
	"github.com/hyperledger/fabric-protos-go/peer"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

var testLogger = log.StandardLogger()

// Check if the string ends with the specified phrases.
func expectStringEndsWith(t *testing.T, expectedSuffix string, actual string) {
	if !assert.True(t, len(actual) >= len(expectedSuffix) && actual[len(actual)-len(expectedSuffix):] == expectedSuffix) {
		testLogger.Infof("Value was '%v'. Expecting to end with '%v'\n", actual, expectedSuffix)
		t.FailNow()
	}
}

func expectResponseStatusOK(t *testing.T, resp *peer.Response) {
	if !assert.EqualValues(t, shim.OK, resp.Status) {
		testLogger.Infof("Response status was %v: %v\n", resp.Status, resp.Message)
		t.FailNow()
	}
}

func expectResponseStatusERROR(t *testing.T, resp *peer.Response) {
	if !assert.EqualValues(t, shim.ERROR, resp.Status) {
		testLogger.Infof("Response status was %v. Expecting ERROR\n", resp.Status)
		t.FailNow()
	}
}

func createMockStub(t *testing.T, stubName string) *shimtest.MockStub {
	return shimtest.NewMockStub(stubName, new(LedgerCC))
}

func initChaincode(mockStub *shimtest.MockStub, arguments [][]byte) peer.Response {
	return mockStub.MockInit("1", arguments)
}

func invoke(mockStub *shimtest.MockStub, txID string, funcName string, args ...string) peer.Response {
	arguments := [][]byte{[]byte(funcName)}
	for _, arg := range args {
		arguments = append(arguments, []byte(arg))
	}

	return mockStub.MockInvoke(txID, arguments)
}
